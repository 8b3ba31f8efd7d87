package renderer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ByLCY/autofit/layout"
)

// Renderer 将布局结果输出为最终文件，例如 PDF 或图像。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result, format Format) ([]byte, error)
}

// Format 是输出文件格式。
type Format string

const (
	PDF  Format = "pdf"
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// ParseFormat 解析格式名称，大小写不敏感，接受 jpg 作为 jpeg 的别名。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "pdf":
		return PDF, nil
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}
	return "", fmt.Errorf("不支持的输出格式 %q", s)
}

// FormatFromPath 根据文件扩展名推断输出格式。
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("无法从 %q 推断输出格式", path)
	}
	return ParseFormat(ext)
}
