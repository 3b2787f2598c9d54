// Package render turns advisor answers written in a small Markdown subset into
// an HTML fragment that is safe to embed in a page as-is.
//
// Supported: rules (--- / ***), headings (# .. #### mapped to h3 .. h6),
// bullet lists, numbered lists that count from 1, CJK section headings
// (一、 .. 十五、), **bold**, *italic* and line breaks. Everything else is text
// and is escaped. The only tags in the output are the ones generated here.
package render

import (
	"fmt"
	"regexp"
	"strings"
)

// literalBreak matches <br> markup typed into the source; it is treated as a
// line boundary before any parsing happens.
var literalBreak = regexp.MustCompile(`(?i)<br\s*/?>`)

// Render converts text to a sanitized HTML fragment. It never fails; input it
// cannot structure comes back as escaped, line-broken text.
func Render(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = literalBreak.ReplaceAllString(text, "\n")

	raw := strings.Split(text, "\n")
	lines := make([]line, len(raw))
	for i, r := range raw {
		lines[i] = classify(r)
	}
	blocks := buildBlocks(lines)

	tags := newTagTable(text)
	out := tags.layout(blocks)
	for i := range out {
		out[i].text = tags.restore(escape(out[i].text))
	}
	return tidy(breakLines(out))
}

// Value renders an arbitrary template value. nil and nil pointers render as
// the empty string.
func Value(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return Render(t)
	case *string:
		if t == nil {
			return ""
		}
		return Render(*t)
	case []byte:
		return Render(string(t))
	case fmt.Stringer:
		return Render(t.String())
	default:
		return Render(fmt.Sprint(t))
	}
}
