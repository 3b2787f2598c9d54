package render

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type lineKind uint8

const (
	lineBlank lineKind = iota
	lineRule
	lineHeading
	lineBullet
	lineSection
	lineNumbered
	linePlain
)

// line is one source line after classification. Classes are tried in the
// order of the constants above; the first match wins.
type line struct {
	kind    lineKind
	raw     string
	level   int // heading level, 3..6
	indent  int // leading whitespace, in runes
	number  int // numbered item value; -1 when it does not fit an int
	content string
}

// sectionNumerals are the CJK enumerators accepted for section headings.
// Larger numerals are left as text.
var sectionNumerals = map[string]bool{
	"一": true, "二": true, "三": true, "四": true, "五": true,
	"六": true, "七": true, "八": true, "九": true, "十": true,
	"十一": true, "十二": true, "十三": true, "十四": true, "十五": true,
}

func classify(raw string) line {
	if strings.TrimSpace(raw) == "" {
		return line{kind: lineBlank, raw: raw}
	}
	if isRule(raw) {
		return line{kind: lineRule, raw: raw}
	}
	if level, content, ok := heading(raw); ok {
		return line{kind: lineHeading, raw: raw, level: level, content: content}
	}
	if indent, content, ok := bullet(raw); ok {
		return line{kind: lineBullet, raw: raw, indent: indent, content: content}
	}
	if content, ok := section(raw); ok {
		return line{kind: lineSection, raw: raw, level: 4, content: content}
	}
	if indent, n, content, ok := numbered(raw); ok {
		return line{kind: lineNumbered, raw: raw, indent: indent, number: n, content: content}
	}
	return line{kind: linePlain, raw: raw, content: raw}
}

// isRule reports a line made only of three or more '-' or three or more '*'.
func isRule(s string) bool {
	if len(s) < 3 || (s[0] != '-' && s[0] != '*') {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// heading matches 1-4 '#' followed by one space and a non-empty remainder.
func heading(s string) (int, string, bool) {
	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	if n == 0 || n > 4 || n+1 >= len(s) || s[n] != ' ' {
		return 0, "", false
	}
	return n + 2, s[n+1:], true
}

func bullet(s string) (int, string, bool) {
	rest, indent := leading(s)
	if rest == "" || (rest[0] != '-' && rest[0] != '*') {
		return 0, "", false
	}
	content, ok := spaced(rest[1:])
	return indent, content, ok
}

func section(s string) (string, bool) {
	rest, _ := leading(s)
	end := strings.IndexFunc(rest, func(r rune) bool { return !strings.ContainsRune("一二三四五六七八九十", r) })
	if end <= 0 || !sectionNumerals[rest[:end]] {
		return "", false
	}
	r, size := utf8.DecodeRuneInString(rest[end:])
	if r != '、' && r != '.' {
		return "", false
	}
	content := strings.TrimLeftFunc(rest[end+size:], unicode.IsSpace)
	return content, content != ""
}

func numbered(s string) (int, int, string, bool) {
	indent, n, rest, ok := numberPrefix(s)
	if !ok {
		return 0, 0, "", false
	}
	content, ok := spaced(rest)
	return indent, n, content, ok
}

// numberPrefix reads "<ws>*<digits>." and returns what follows the dot.
func numberPrefix(s string) (indent, n int, rest string, ok bool) {
	rest, indent = leading(s)
	d := 0
	for d < len(rest) && rest[d] >= '0' && rest[d] <= '9' {
		d++
	}
	if d == 0 || d >= len(rest) || rest[d] != '.' {
		return 0, 0, "", false
	}
	n, err := strconv.Atoi(rest[:d])
	if err != nil {
		n = -1
	}
	return indent, n, rest[d+1:], true
}

// continues reports whether s opens with "<digits>.<ws>" at column zero and
// carries the number want. Content after the whitespace is not required.
func continues(s string, want int) bool {
	indent, n, rest, ok := numberPrefix(s)
	if !ok || indent != 0 || n != want {
		return false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return rest != "" && unicode.IsSpace(r)
}

// spaced applies the "one or more spaces, then at least one character" rule
// used after list markers. A whitespace-only tail still yields its last rune.
func spaced(rest string) (string, bool) {
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if len(trimmed) == len(rest) {
		return "", false
	}
	if trimmed != "" {
		return trimmed, true
	}
	_, size := utf8.DecodeLastRuneInString(rest)
	if size == len(rest) {
		return "", false
	}
	return rest[len(rest)-size:], true
}

func leading(s string) (string, int) {
	rest := strings.TrimLeftFunc(s, unicode.IsSpace)
	return rest, utf8.RuneCountInString(s[:len(s)-len(rest)])
}
