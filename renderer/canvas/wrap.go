package canvasrenderer

import (
	"math"
	"strings"
	"unicode"

	"github.com/ByLCY/autofit/layout"
)

// wrapper 实现贪心折行。所有宽度均为 px，limit <= 0 表示不限宽。
type wrapper struct {
	limit   float64
	measure func(string) float64
}

func (w wrapper) wrap(content string, mode string) []layout.TextLine {
	content = strings.ReplaceAll(content, "\r", "")
	switch mode {
	case layout.WrapNone:
		parts := strings.Split(content, "\n")
		lines := make([]layout.TextLine, 0, len(parts))
		for _, p := range parts {
			lines = append(lines, w.line(p))
		}
		return lines
	case layout.WrapBreakWord:
		return w.byRune(content)
	default:
		return w.byToken(content)
	}
}

func (w wrapper) max() float64 {
	if w.limit <= 0 {
		return math.MaxFloat64
	}
	return w.limit
}

// line 构造一行；行尾空白不计入宽度。
func (w wrapper) line(s string) layout.TextLine {
	return layout.TextLine{Content: s, Width: w.measure(strings.TrimRightFunc(s, unicode.IsSpace))}
}

// byRune 忽略空白机会，纯按宽度切分（但仍然尊重显式换行）。
func (w wrapper) byRune(content string) []layout.TextLine {
	limit := w.max()
	var lines []layout.TextLine
	for _, para := range strings.Split(content, "\n") {
		var cur []rune
		for _, r := range para {
			next := append(cur, r)
			if len(cur) > 0 && w.measure(string(next)) > limit {
				lines = append(lines, w.line(string(cur)))
				next = []rune{r}
			}
			cur = next
		}
		lines = append(lines, w.line(string(cur)))
	}
	return lines
}

// byToken 优先在空白处折行；单个词超出限制时在词内拆分。
// 软换行处的空白被吞掉，不出现在下一行行首。
func (w wrapper) byToken(content string) []layout.TextLine {
	limit := w.max()
	var lines []layout.TextLine
	for _, para := range strings.Split(content, "\n") {
		var b strings.Builder
		soft := false
		emit := func() {
			lines = append(lines, w.line(b.String()))
			b.Reset()
			soft = true
		}
		for _, tok := range tokenize(para) {
			isSpace := strings.TrimSpace(tok) == ""
			if isSpace && soft && b.Len() == 0 {
				continue
			}
			candidate := b.String() + tok
			if w.measure(strings.TrimRightFunc(candidate, unicode.IsSpace)) <= limit {
				b.WriteString(tok)
				continue
			}
			if isSpace {
				emit()
				continue
			}
			if b.Len() > 0 {
				emit()
			}
			if w.measure(tok) <= limit {
				b.WriteString(tok)
				continue
			}
			chunks := w.split(tok, limit)
			for _, c := range chunks[:len(chunks)-1] {
				b.WriteString(c)
				emit()
			}
			b.WriteString(chunks[len(chunks)-1])
		}
		lines = append(lines, w.line(b.String()))
	}
	return lines
}

// split 将超长的词按宽度拆分，每段至少一个字符。
func (w wrapper) split(token string, limit float64) []string {
	var parts []string
	var cur []rune
	for _, r := range token {
		next := append(cur, r)
		if len(cur) > 0 && w.measure(string(next)) > limit {
			parts = append(parts, string(cur))
			next = []rune{r}
		}
		cur = next
	}
	return append(parts, string(cur))
}

// tokenize 将段落切分为交替的空白与非空白片段。
func tokenize(s string) []string {
	var tokens []string
	start := 0
	prevSpace := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if i > start && space != prevSpace {
			tokens = append(tokens, s[start:i])
			start = i
		}
		prevSpace = space
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}
