package canvasrenderer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/autofit/fonts"
	"github.com/ByLCY/autofit/layout"
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// fontFace 返回指定字号（pt）的字体面；字体族按资源缓存，加载失败时退回内置字体。
func (r *Renderer) fontFace(font layout.FontResource, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Family
	if familyName == "" {
		familyName = font.Name
	}
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	data, err := r.loadFontBytes(font)
	if err == nil {
		err = family.LoadFont(data, 0, style)
	}
	if err != nil {
		fallback, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: canvas.FontRegular}
		return fallback, canvas.FontRegular, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	src := font.Src
	if src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	if fonts.IsBuiltin(src) {
		name := strings.ToLower(fonts.Trim(src))
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return fonts.Load(name)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 builtin:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

// fallback 调用方需持有 fontMu。
func (r *Renderer) fallback() (*canvas.FontFamily, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	data, err := fonts.Load(fonts.Default)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("autofit-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	r.fallbackFamily = family
	return family, nil
}

func resolveFontResource(name string, fonts map[string]layout.FontResource) layout.FontResource {
	if font, ok := fonts[name]; ok {
		return font
	}
	if font, ok := fonts["Body"]; ok {
		return font
	}
	return layout.FontResource{Name: name}
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	var result canvas.FontStyle
	switch {
	case s == "":
		result = canvas.FontRegular
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	default:
		result = canvas.FontRegular
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}
