package render

import (
	"regexp"
	"strconv"
	"strings"
)

// generated lists every tag the renderer may produce. <br> is added after
// escaping and needs no placeholder.
var generated = []string{
	"<hr>",
	"<h3>", "</h3>", "<h4>", "</h4>", "<h5>", "</h5>", "<h6>", "</h6>",
	"<ul>", "</ul>", "<ol>", "</ol>", "<li>", "</li>",
	"<strong>", "</strong>", "<em>", "</em>",
}

const tagBreak = "<br>"

// tagTable maps generated tags to placeholders for a single Render call.
// Placeholders are built from a private-use rune absent from the input, so
// source text can never forge one.
type tagTable struct {
	mark  string
	token map[string]string
	undo  *strings.Replacer
}

func newTagTable(input string) *tagTable {
	t := &tagTable{mark: string(pickMark(input)), token: make(map[string]string, len(generated))}
	pairs := make([]string, 0, 2*len(generated))
	for i, tag := range generated {
		p := t.mark + strconv.Itoa(i) + t.mark
		t.token[tag] = p
		pairs = append(pairs, p, tag)
	}
	t.undo = strings.NewReplacer(pairs...)
	return t
}

func pickMark(s string) rune {
	used := make(map[rune]bool)
	for _, r := range s {
		if (r >= 0xE000 && r <= 0xF8FF) || r >= 0xF0000 {
			used[r] = true
		}
	}
	for r := rune(0xE000); r <= 0xF8FF; r++ {
		if !used[r] {
			return r
		}
	}
	for r := rune(0xF0000); r <= 0xFFFFD; r++ {
		if !used[r] {
			return r
		}
	}
	return 0x10FFFD
}

func (t *tagTable) put(tag string) string { return t.token[tag] }

func (t *tagTable) wrap(name, inner string) string {
	return t.token["<"+name+">"] + inner + t.token["</"+name+">"]
}

func (t *tagTable) restore(s string) string { return t.undo.Replace(s) }

type outKind uint8

const (
	outBlock outKind = iota // rule, heading, list open or close
	outItem                 // list item, or a blank kept inside a list
	outText                 // paragraph line
)

type outLine struct {
	kind outKind
	text string
}

// layout emits output lines with placeholders in place of tags.
func (t *tagTable) layout(blocks []block) []outLine {
	var out []outLine
	for _, blk := range blocks {
		switch blk.kind {
		case blockRule:
			out = append(out, outLine{outBlock, t.put("<hr>")})
		case blockHeading:
			name := "h" + strconv.Itoa(blk.level)
			out = append(out, outLine{outBlock, t.wrap(name, t.emphasize(blk.text))})
		case blockBulletList, blockNumberedList:
			name := "ul"
			if blk.kind == blockNumberedList {
				name = "ol"
			}
			out = append(out, outLine{outBlock, t.put("<" + name + ">")})
			for _, e := range blk.entries {
				if e.blank {
					out = append(out, outLine{outItem, ""})
					continue
				}
				out = append(out, outLine{outItem, t.wrap("li", t.emphasize(e.text))})
			}
			out = append(out, outLine{outBlock, t.put("</" + name + ">")})
		case blockParagraph:
			body := t.emphasize(strings.Join(blk.lines, "\n"))
			for _, s := range strings.Split(body, "\n") {
				out = append(out, outLine{outText, s})
			}
		}
	}
	return out
}

// escape neutralizes markup characters. An existing "&amp;" is left alone so
// output fed back through Render is not double-escaped.
func escape(s string) string {
	if strings.ContainsRune(s, '&') {
		var b strings.Builder
		for i := 0; i < len(s); i++ {
			if s[i] == '&' && !strings.HasPrefix(s[i:], "&amp;") {
				b.WriteString("&amp;")
				continue
			}
			b.WriteByte(s[i])
		}
		s = b.String()
	}
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}

// breakLines appends <br> to paragraph lines and joins everything with "\n".
// A run of blank lines yields a single <br> unless it follows a block.
func breakLines(out []outLine) string {
	var b strings.Builder
	first := true
	write := func(s string) {
		if !first {
			b.WriteByte('\n')
		}
		first = false
		b.WriteString(s)
	}
	prevBlock, prevBlank := false, false
	for _, l := range out {
		switch l.kind {
		case outBlock:
			write(l.text)
			prevBlock, prevBlank = true, false
		case outItem:
			write(l.text)
		case outText:
			if strings.TrimSpace(l.text) == "" {
				if !prevBlock && !prevBlank {
					write(tagBreak)
				}
				prevBlank = true
				continue
			}
			write(l.text + tagBreak)
			prevBlock, prevBlank = false, false
		}
	}
	return b.String()
}

var (
	breakBeforeBlock = regexp.MustCompile(`<br>\s*(<hr>|<h[3-6]>|<ul>|<ol>)`)
	breakAfterBlock  = regexp.MustCompile(`(</h[3-6]>|</ul>|</ol>)\s*<br>`)
)

// tidy drops breaks that sit right against a block element.
func tidy(s string) string {
	s = breakBeforeBlock.ReplaceAllString(s, "$1")
	return breakAfterBlock.ReplaceAllString(s, "$1")
}
