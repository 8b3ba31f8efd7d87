package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/autofit/dsl"
)

const sampleDSL = `
autofit Poster v1 {
  meta {
    title: "Poster ${event.name}"
    author: "ops"
  }

  canvas {
    width: 800px
    height: 600px
    background: #ffffff
  }

  # frames fall back to these
  defaults {
    mode: multi-line
    min: 8px; max: 160px
    precision: 0.1px
  }

  font Body {
    src: "builtin:go-regular"
  }

  frame Title {
    x: 20px y: 20px
    width: 760px
    height: 120px
    mode: box
    color: #0F62FE
    "Hello, ${user.name|friend}!"
  }

  /* second frame */
  frame Footer {
    width: 80mm
    height: 12mm
    line-height: 1.2x
    "line one"
    "line two"
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "Poster" {
		t.Fatalf("expected document name Poster, got %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("expected version v1, got %s", doc.Version)
	}
	if len(doc.Sections) != 6 {
		t.Fatalf("expected 6 sections, got %d", len(doc.Sections))
	}

	kinds := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		kinds = append(kinds, s.Kind())
	}
	if got := strings.Join(kinds, ","); got != "meta,canvas,defaults,font,frame,frame" {
		t.Fatalf("unexpected section order %s", got)
	}

	canvas := doc.Section("canvas").Properties()
	if canvas["width"] != "800px" || canvas["height"] != "600px" {
		t.Fatalf("unexpected canvas props %v", canvas)
	}
	if canvas["background"] != "#ffffff" {
		t.Fatalf("expected background color, got %q", canvas["background"])
	}

	defaults := doc.Section("defaults").Properties()
	if defaults["mode"] != "multi-line" || defaults["min"] != "8px" || defaults["max"] != "160px" {
		t.Fatalf("unexpected defaults %v", defaults)
	}
}

func TestParseFrames(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	frames := doc.Frames()
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}

	title := frames[0]
	if title.Name != "Title" {
		t.Fatalf("expected Title, got %s", title.Name)
	}
	props := title.Block.Properties()
	if props["mode"] != "box" || props["x"] != "20px" || props["color"] != "#0F62FE" {
		t.Fatalf("unexpected title props %v", props)
	}
	texts := title.Block.Texts()
	if len(texts) != 1 || texts[0] != "Hello, ${user.name|friend}!" {
		t.Fatalf("unexpected title text %v", texts)
	}

	footer := frames[1]
	if got := footer.Block.Properties()["line-height"]; got != "1.2x" {
		t.Fatalf("expected line-height 1.2x, got %q", got)
	}
	if got := footer.Block.Texts(); len(got) != 2 || got[1] != "line two" {
		t.Fatalf("unexpected footer texts %v", got)
	}

	fonts := doc.Fonts()
	if len(fonts) != 1 || fonts[0].Block.Properties()["src"] != "builtin:go-regular" {
		t.Fatalf("unexpected fonts %+v", fonts)
	}
}

func TestParseRejectsMissingHeader(t *testing.T) {
	if _, err := dsl.ParseString(`frame A { "x" }`); err == nil {
		t.Fatalf("expected parse error for missing autofit header")
	}
}

func TestParseRejectsUnknownSection(t *testing.T) {
	_, err := dsl.ParseString(`autofit A v1 { page X { } }`)
	if err == nil {
		t.Fatalf("expected parse error for unknown section")
	}
}

func TestParseReader(t *testing.T) {
	doc, err := dsl.Parse(strings.NewReader("autofit Tiny v2 {\n}\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Name != "Tiny" || len(doc.Sections) != 0 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Section("canvas") != nil {
		t.Fatalf("expected no canvas section")
	}
}

func TestParseHashLiterals(t *testing.T) {
	doc, err := dsl.ParseString("autofit T v1 {\n  frame A { color: #112 }\n}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := doc.Frames()[0].Block.Properties()["color"]; got != "#112" {
		t.Fatalf("unexpected color %q", got)
	}

	// a malformed colour is a comment and takes the closing brace with it
	if _, err := dsl.ParseString("autofit T v1 {\n  frame A { color: #12 }\n}"); err == nil {
		t.Fatalf("expected parse error for malformed colour literal")
	}
	doc, err = dsl.ParseString("autofit T v1 {\n  frame A { color: \"#12\" }\n}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := doc.Frames()[0].Block.Properties()["color"]; got != "#12" {
		t.Fatalf("unexpected color %q", got)
	}
}
