package prover

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// positionMap converts between byte offsets and (line, column)
// positions in a document. Lines are 1-based; columns count runes from
// 0, matching the REPL protocol.
type positionMap struct {
	doc  string
	bols []int // byte offset of each beginning-of-line
}

func newPositionMap(doc string) *positionMap {
	bols := []int{0}
	pos := 0
	for {
		nl := strings.IndexByte(doc[pos:], '\n')
		if nl < 0 {
			return &positionMap{doc: doc, bols: bols}
		}
		pos += nl + 1
		bols = append(bols, pos)
	}
}

// position maps a byte offset to a line and rune column.
func (pm *positionMap) position(offset int) (line, col int) {
	line = sort.SearchInts(pm.bols, offset+1)
	bol := pm.bols[line-1]
	return line, utf8.RuneCountInString(pm.doc[bol:offset])
}

// offset maps a line and rune column back to a byte offset.
func (pm *positionMap) offset(line, col int) int {
	off := pm.bols[line-1]
	for ; col > 0; col-- {
		_, size := utf8.DecodeRuneInString(pm.doc[off:])
		off += size
	}
	return off
}
