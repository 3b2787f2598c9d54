package render

type blockKind uint8

const (
	blockParagraph blockKind = iota
	blockRule
	blockHeading
	blockBulletList
	blockNumberedList
)

// entry is one list item. blank entries are empty lines kept inside a
// numbered list because the next line continues the count.
type entry struct {
	text  string
	blank bool
}

type block struct {
	kind    blockKind
	level   int
	text    string   // heading content
	lines   []string // paragraph lines, raw
	entries []entry
}

type listState uint8

const (
	noList listState = iota
	inBulletList
	inNumberedList
)

type builder struct {
	blocks []block
	para   []string
	list   *block
	state  listState
	last   int
}

// buildBlocks groups classified lines into blocks. Lists are opened and closed
// here so every list in the output is balanced.
func buildBlocks(lines []line) []block {
	b := &builder{}
	for i := range lines {
		b.feed(lines, i)
	}
	b.closeList()
	b.flushParagraph()
	return b.blocks
}

func (b *builder) feed(lines []line, i int) {
	ln := lines[i]
	switch b.state {
	case inBulletList:
		if ln.kind == lineBullet {
			b.list.entries = append(b.list.entries, entry{text: ln.content})
			return
		}
		b.closeList()
	case inNumberedList:
		switch {
		case ln.kind == lineNumbered && ln.indent == 0 && ln.number == b.last+1:
			b.list.entries = append(b.list.entries, entry{text: ln.content})
			b.last = ln.number
			return
		case ln.kind == lineNumbered:
			// out of sequence: ends the list and stays literal text
			b.closeList()
			b.paragraphLine(ln.raw)
			return
		case ln.kind == lineBlank && i+1 < len(lines) && continues(lines[i+1].raw, b.last+1):
			b.list.entries = append(b.list.entries, entry{blank: true})
			return
		}
		b.closeList()
		if ln.kind == lineBlank {
			return
		}
	}
	b.start(ln)
}

func (b *builder) start(ln line) {
	switch ln.kind {
	case lineRule:
		b.emit(block{kind: blockRule})
	case lineHeading, lineSection:
		b.emit(block{kind: blockHeading, level: ln.level, text: ln.content})
	case lineBullet:
		b.open(blockBulletList, inBulletList, ln.content)
	case lineNumbered:
		if ln.indent == 0 && ln.number == 1 {
			b.open(blockNumberedList, inNumberedList, ln.content)
			b.last = 1
			return
		}
		b.paragraphLine(ln.raw)
	default:
		b.paragraphLine(ln.raw)
	}
}

func (b *builder) open(kind blockKind, state listState, first string) {
	b.flushParagraph()
	b.list = &block{kind: kind, entries: []entry{{text: first}}}
	b.state = state
}

func (b *builder) closeList() {
	if b.list != nil {
		b.blocks = append(b.blocks, *b.list)
	}
	b.list = nil
	b.state = noList
	b.last = 0
}

func (b *builder) emit(blk block) {
	b.flushParagraph()
	b.blocks = append(b.blocks, blk)
}

func (b *builder) paragraphLine(s string) {
	b.para = append(b.para, s)
}

func (b *builder) flushParagraph() {
	if len(b.para) == 0 {
		return
	}
	b.blocks = append(b.blocks, block{kind: blockParagraph, lines: b.para})
	b.para = nil
}
