package prover

import (
	"regexp"

	"github.com/mattam82/alectryon/internal/document"
)

// Sentence boundaries in tactic blocks: begin/end keywords and the
// commas separating tactics.
var markersRE = regexp.MustCompile(`(?:\b(?:begin|end)\b)|,`)

type marker struct {
	text string
	beg  int
	end  int
}

func findMarkers(doc string) []marker {
	var out []marker
	for _, span := range markersRE.FindAllStringIndex(doc, -1) {
		out = append(out, marker{text: doc[span[0]:span[1]], beg: span[0], end: span[1]})
	}
	return out
}

// sentenceRange is one prover sentence: a byte span of the document and
// the goal state after running it.
type sentenceRange struct {
	beg   int
	end   int
	state string
}

// span is a fragment tagged with the byte range of the document it
// came from.
type span struct {
	beg      int
	end      int
	fragment document.Fragment
}

// segment splits the document into sentence and text spans. Ranges must
// be sorted and non-overlapping; gaps between them become Text.
func segment(doc string, ranges []sentenceRange) ([]span, error) {
	var spans []span
	pos := 0
	for _, r := range ranges {
		if r.beg > pos {
			spans = append(spans, span{pos, r.beg, document.Text{Contents: doc[pos:r.beg]}})
		}
		goals, err := parseGoals(r.state)
		if err != nil {
			return nil, err
		}
		spans = append(spans, span{r.beg, r.end, document.Sentence{
			Contents: doc[r.beg:r.end],
			Messages: []document.Message{},
			Goals:    goals,
		}})
		pos = r.end
	}
	if pos < len(doc) {
		spans = append(spans, span{pos, len(doc), document.Text{Contents: doc[pos:]}})
	}
	return spans, nil
}

// attachMessages adds each prover message to the sentence whose span
// contains its position, falling back to the closest earlier sentence.
func attachMessages(spans []span, messages []replMessage, pm *positionMap) {
	for _, msg := range messages {
		offset := pm.offset(msg.PosLine, msg.PosCol)
		target := -1
		for i, sp := range spans {
			if _, isSentence := sp.fragment.(document.Sentence); !isSentence {
				continue
			}
			if sp.beg > offset {
				break
			}
			target = i
		}
		if target < 0 {
			continue
		}
		s := spans[target].fragment.(document.Sentence)
		s.Messages = append(s.Messages, document.Message{Contents: msg.Text})
		spans[target].fragment = s
	}
}
