package prover

import (
	"regexp"
	"strings"

	"github.com/mattam82/alectryon/internal/document"
)

var hypRE = regexp.MustCompile(`(?P<names>.*?) : (?P<type>(?:.*|\n )+)\n`)

// parseHypotheses extracts hypotheses from the hypothesis half of a
// plain-text goal state. Each hypothesis prints as "names : type", with
// continuation lines indented by two extra spaces.
func parseHypotheses(hyps string) []document.Hypothesis {
	var out []document.Hypothesis
	if hyps != "" && !strings.HasSuffix(hyps, "\n") {
		hyps += "\n"
	}
	for _, m := range hypRE.FindAllStringSubmatch(hyps, -1) {
		out = append(out, document.Hypothesis{
			Names: strings.Fields(m[1]),
			Type:  strings.ReplaceAll(m[2], "\n  ", "\n"),
		})
	}
	return out
}

// parseGoals parses a plain-text goal state into structured goals.
// Multiple goals print separated by blank lines, with an "n goals"
// header before the first.
func parseGoals(state string) ([]document.Goal, error) {
	if state == "no goals" {
		return nil, nil
	}
	goals := strings.Split(state, "\n\n")
	if len(goals) > 1 {
		if nl := strings.IndexByte(goals[0], '\n'); nl >= 0 {
			goals[0] = goals[0][nl:]
		}
	}
	out := make([]document.Goal, 0, len(goals))
	for _, goal := range goals {
		hyps, ccl, found := strings.Cut(goal, "\n⊢")
		if !found {
			// A goal without hypotheses prints as "⊢ ccl" with no
			// leading newline.
			hyps, ccl, found = "", strings.TrimPrefix(goal, "⊢"), strings.HasPrefix(goal, "⊢")
		}
		if !found {
			return nil, &ProtocolError{Message: "goal state without ⊢ separator: " + goal}
		}
		out = append(out, document.Goal{
			Conclusion: strings.TrimSpace(strings.ReplaceAll(ccl, "\n  ", "\n")),
			Hypotheses: parseHypotheses(hyps),
		})
	}
	return out, nil
}
