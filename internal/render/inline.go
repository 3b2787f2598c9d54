package render

import "strings"

// emphasize applies bold and then italic markup. s may span several lines;
// bold never crosses a newline, italic may.
func (t *tagTable) emphasize(s string) string {
	return t.italic(t.bold(s))
}

// bold rewrites **x** pairs, shortest match first, scanning left to right.
func (t *tagTable) bold(s string) string {
	if !strings.Contains(s, "**") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if !strings.HasPrefix(s[i:], "**") {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := len(s)
		if nl := strings.IndexByte(s[i+2:], '\n'); nl >= 0 {
			end = i + 2 + nl
		}
		if i+3 <= end {
			if k := strings.Index(s[i+3:end], "**"); k >= 0 {
				j := i + 3 + k
				b.WriteString(t.wrap("strong", s[i+2:j]))
				i = j + 2
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// italic rewrites *x* where neither star touches another star and x holds no
// star and no tag.
func (t *tagTable) italic(s string) string {
	if strings.IndexByte(s, '*') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '*' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if j, ok := t.italicEnd(s, i); ok {
			b.WriteString(t.wrap("em", s[i+1:j]))
			i = j + 1
			continue
		}
		b.WriteByte('*')
		i++
	}
	return b.String()
}

func (t *tagTable) italicEnd(s string, i int) (int, bool) {
	if i > 0 && s[i-1] == '*' {
		return 0, false
	}
	j := i + 1
	for j < len(s) && s[j] != '*' && !t.barrier(s, j) {
		j++
	}
	if j == i+1 || j >= len(s) || s[j] != '*' {
		return 0, false
	}
	if j+1 < len(s) && s[j+1] == '*' {
		return 0, false
	}
	return j, true
}

// barrier reports a tag boundary at s[j]: a literal '<' or a placeholder.
func (t *tagTable) barrier(s string, j int) bool {
	return s[j] == '<' || strings.HasPrefix(s[j:], t.mark)
}
