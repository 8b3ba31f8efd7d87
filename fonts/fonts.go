// Package fonts exposes the font faces compiled into the binary so jobs can
// render without any font files on disk.
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10regular"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Default is the face used when a job declares no fonts.
const Default = "go-regular"

var builtin = map[string][]byte{
	"go-regular": goregular.TTF,
	"go-bold":    gobold.TTF,
	"go-italic":  goitalic.TTF,
	"go-mono":    gomono.TTF,
	"lm-roman":   lmroman10regular.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "builtin:go-bold"、"embed:go-bold" 或直接 "go-bold"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(Trim(name))
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("未知的内置字体 %q（可用：%s）", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// IsBuiltin reports whether src refers to a compiled-in face.
func IsBuiltin(src string) bool {
	return strings.HasPrefix(src, "builtin:") || strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "embed:")
}

// Trim strips the builtin:/embed: prefix from src.
func Trim(src string) string {
	for _, p := range []string{"builtin:", "built-in:", "embed:"} {
		if strings.HasPrefix(src, p) {
			return strings.TrimPrefix(src, p)
		}
	}
	return src
}

// Names lists the builtin faces in sorted order.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// LoadDir reads every .ttf/.otf/.woff2 file in dir, keyed by lower-cased file
// stem, so they can be referenced as builtin:<stem>. Subdirectories are not
// scanned. An empty dir yields an empty map.
func LoadDir(dir string) (map[string][]byte, error) {
	out := map[string][]byte{}
	if dir == "" {
		return out, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取字体目录失败: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".ttf" && ext != ".otf" && ext != ".woff2" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("读取字体 %s 失败: %w", e.Name(), err)
		}
		out[strings.ToLower(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))] = data
	}
	return out, nil
}
