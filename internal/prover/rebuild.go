package prover

import (
	"github.com/mattam82/alectryon/internal/document"
)

// withContents rebuilds a fragment with different contents, keeping any
// attached outputs.
func withContents(fr document.Fragment, contents string) document.Fragment {
	switch f := fr.(type) {
	case document.Text:
		f.Contents = contents
		return f
	case document.Sentence:
		f.Contents = contents
		return f
	case document.RichSentence:
		f.Contents = &contents
		return f
	}
	return fr
}

// rebuildChunks maps fragments of the concatenated document back onto
// the input chunks. Fragments straddling a chunk boundary are split:
// the part inside the current chunk becomes Text, the rest carries the
// fragment's outputs into the next chunk.
func rebuildChunks(inputs []string, spans []span) document.Movie {
	if len(inputs) == 0 {
		return document.Movie{}
	}
	chunks := document.Movie{{}}

	inEnd := len(inputs[0])
	next := 1
	for i := 0; i < len(spans); {
		sp := spans[i]
		if sp.end <= inEnd {
			chunks[len(chunks)-1] = append(chunks[len(chunks)-1], sp.fragment)
			i++
			continue
		}
		if sp.beg < inEnd {
			cut := inEnd - sp.beg
			contents := fragmentContents(sp.fragment)
			chunks[len(chunks)-1] = append(chunks[len(chunks)-1], document.Text{Contents: contents[:cut]})
			spans[i] = span{inEnd, sp.end, withContents(sp.fragment, contents[cut:])}
		}
		if next >= len(inputs) {
			break
		}
		chunks = append(chunks, []document.Fragment{})
		inEnd += len(inputs[next])
		next++
	}
	return chunks
}

func fragmentContents(fr document.Fragment) string {
	switch f := fr.(type) {
	case document.Text:
		return f.Contents
	case document.Sentence:
		return f.Contents
	case document.RichSentence:
		if f.Contents != nil {
			return *f.Contents
		}
	}
	return ""
}
