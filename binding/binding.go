// Package binding expands ${path} placeholders in frame text against a data
// tree decoded from YAML or JSON.
package binding

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var placeholder = regexp.MustCompile(`\$\{([^}]*)\}`)

// Expansion is the outcome of Expand.
type Expansion struct {
	Text string
	// Missing lists the paths that had neither a value nor a fallback.
	Missing []string
}

// Expand replaces ${a.b[0].c} and ${a.b|fallback} with values from data.
// A placeholder whose path cannot be resolved is replaced with its fallback
// when one is given and otherwise left in place.
func Expand(text string, data any) Expansion {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(text, func(match string) string {
		expr := placeholder.FindStringSubmatch(match)[1]
		path, fallback, hasFallback := strings.Cut(expr, "|")
		path = strings.TrimSpace(path)
		if path != "" && data != nil {
			if v, ok := Lookup(data, path); ok {
				return format(v)
			}
		}
		if hasFallback {
			return strings.TrimSpace(fallback)
		}
		missing = append(missing, path)
		return match
	})
	return Expansion{Text: out, Missing: missing}
}

// Interpolate is Expand without the diagnostics.
func Interpolate(text string, data any) string {
	return Expand(text, data).Text
}

// Lookup resolves a dotted path with optional [n] indexes.
func Lookup(data any, path string) (any, bool) {
	cur := data
	for _, seg := range strings.Split(path, ".") {
		name, idx, err := splitSegment(seg)
		if err != nil {
			return nil, false
		}
		if name != "" {
			var ok bool
			if cur, ok = field(cur, name); !ok {
				return nil, false
			}
		}
		for _, i := range idx {
			var ok bool
			if cur, ok = element(cur, i); !ok {
				return nil, false
			}
		}
	}
	return cur, true
}

func splitSegment(seg string) (string, []int, error) {
	open := strings.IndexByte(seg, '[')
	if open < 0 {
		return seg, nil, nil
	}
	name, rest := seg[:open], seg[open:]
	var idx []int
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("unexpected %q in %q", rest, seg)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, fmt.Errorf("unterminated index in %q", seg)
		}
		n, err := strconv.Atoi(strings.TrimSpace(rest[1:end]))
		if err != nil {
			return "", nil, err
		}
		idx = append(idx, n)
		rest = rest[end+1:]
	}
	return name, idx, nil
}

func field(cur any, key string) (any, bool) {
	switch c := cur.(type) {
	case map[string]any:
		v, ok := c[key]
		return v, ok
	case map[string]string:
		v, ok := c[key]
		return v, ok
	case map[any]any:
		v, ok := c[key]
		return v, ok
	}
	return nil, false
}

func element(cur any, i int) (any, bool) {
	switch c := cur.(type) {
	case []any:
		if i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	case []string:
		if i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}
	return nil, false
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// LoadFile decodes a YAML or JSON data file. An empty path yields nil data.
func LoadFile(path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// Decode decodes YAML or JSON bytes into a data tree.
func Decode(raw []byte) (any, error) {
	var data any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("binding: decode data: %w", err)
	}
	return data, nil
}
