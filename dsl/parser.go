package dsl

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+|\.\d+)(?:px|pt|mm|cm|in|%|x)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document is the root AST node of an .autofit job file:
//
//	autofit Poster v1 {
//	  canvas { width: 800px height: 600px }
//	  font Body { src: "builtin:go-regular" }
//	  frame Title { width: 760px height: 120px mode: box  "Hello" }
//	}
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'autofit' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section is one top-level declaration.
type Section struct {
	Meta     *Block      `parser:"  'meta' @@"`
	Canvas   *Block      `parser:"| 'canvas' @@"`
	Defaults *Block      `parser:"| 'defaults' @@"`
	Font     *NamedBlock `parser:"| 'font' @@"`
	Frame    *NamedBlock `parser:"| 'frame' @@"`
}

// Kind returns the human-readable section type.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Meta != nil:
		return "meta"
	case s.Canvas != nil:
		return "canvas"
	case s.Defaults != nil:
		return "defaults"
	case s.Font != nil:
		return "font"
	case s.Frame != nil:
		return "frame"
	default:
		return "unknown"
	}
}

// NamedBlock is a block introduced by an identifier, e.g. `frame Title { ... }`.
type NamedBlock struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Block *Block         `parser:"@@"`
}

// Block is a delimited list of statements separated by newlines, semicolons
// or plain whitespace.
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement is either a property or a text literal.
type Statement struct {
	Property *Property      `parser:"  @@"`
	Text     *StringLiteral `parser:"| @String"`
}

// Property uses colon syntax (key: value).
type Property struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident ':'"`
	Value *Value         `parser:"Newline* @@"`
}

// Value is a scalar property value.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Ident  *string        `parser:"| @Ident"`
}

// Raw returns the value as written, with strings unquoted.
func (v *Value) Raw() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Properties flattens the block's properties into a map. Later keys win.
func (b *Block) Properties() map[string]string {
	out := map[string]string{}
	if b == nil {
		return out
	}
	for _, st := range b.Statements {
		if st.Property == nil {
			continue
		}
		out[strings.ToLower(st.Property.Key)] = st.Property.Value.Raw()
	}
	return out
}

// Texts returns the text literals of the block in order.
func (b *Block) Texts() []string {
	if b == nil {
		return nil
	}
	var out []string
	for _, st := range b.Statements {
		if st.Text != nil {
			out = append(out, string(*st.Text))
		}
	}
	return out
}

// Frames returns the frame declarations in document order.
func (d *Document) Frames() []*NamedBlock {
	var out []*NamedBlock
	for _, s := range d.Sections {
		if s.Frame != nil {
			out = append(out, s.Frame)
		}
	}
	return out
}

// Fonts returns the font declarations in document order.
func (d *Document) Fonts() []*NamedBlock {
	var out []*NamedBlock
	for _, s := range d.Sections {
		if s.Font != nil {
			out = append(out, s.Font)
		}
	}
	return out
}

// Section returns the first block of the given kind (meta, canvas, defaults).
func (d *Document) Section(kind string) *Block {
	for _, s := range d.Sections {
		switch {
		case kind == "meta" && s.Meta != nil:
			return s.Meta
		case kind == "canvas" && s.Canvas != nil:
			return s.Canvas
		case kind == "defaults" && s.Defaults != nil:
			return s.Defaults
		}
	}
	return nil
}

// Parse parses DSL content from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}

// ParseFile parses the DSL file at path. Positions in errors carry the path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return documentParser.Parse(path, f)
}
