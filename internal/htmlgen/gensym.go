package htmlgen

import "strconv"

// b16 formats an index the way backreference ids and gensym suffixes are
// written: lowercase base16, no padding.
func b16(i int) string {
	return strconv.FormatInt(int64(i), 16)
}

// Gensym produces document-unique element ids: stem + prefix + hex
// counter, one counter per prefix. The stem is derived from the document
// name so ids from different documents on one page cannot collide.
type Gensym struct {
	stem     string
	counters map[string]int
}

// NewGensym creates a Gensym. A non-empty stem gets a "-" separator.
func NewGensym(stem string) *Gensym {
	if stem != "" {
		stem += "-"
	}
	return &Gensym{stem: stem, counters: make(map[string]int)}
}

// Next returns the next id for the given prefix.
func (g *Gensym) Next(prefix string) string {
	n := g.counters[prefix]
	g.counters[prefix]++
	return g.stem + prefix + b16(n)
}
