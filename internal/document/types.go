package document

import "fmt"

// Hypothesis is a named hypothesis in a proof context.
// Body is nil for hypotheses without a definition (the common case).
type Hypothesis struct {
	Names []string `json:"names"`
	Body  *string  `json:"body"`
	Type  string   `json:"type"`
}

// Goal is a single proof obligation: a conclusion under a list of
// hypotheses. Name is nil for unnamed goals.
type Goal struct {
	Name       *string      `json:"name"`
	Conclusion string       `json:"conclusion"`
	Hypotheses []Hypothesis `json:"hypotheses"`
}

// Message is a diagnostic or informational message emitted by the prover.
type Message struct {
	Contents string `json:"contents"`
}

// Sentence is a span of prover input together with the prover's response:
// the messages it printed and the goals left open after executing it.
type Sentence struct {
	Contents string    `json:"contents"`
	Messages []Message `json:"messages"`
	Goals    []Goal    `json:"goals"`
}

// Text is a span of the source that the prover did not execute
// (whitespace and comments).
type Text struct {
	Contents string `json:"contents"`
}

// Goals groups the goals shown in one output block of a rich sentence.
type Goals struct {
	Goals []Goal `json:"goals"`
}

// Messages groups the messages shown in one output block of a rich sentence.
type Messages struct {
	Messages []Message `json:"messages"`
}

// Annots carries display annotations attached to a sentence.
type Annots struct {
	Unfold bool `json:"unfold"`
	Fails  bool `json:"fails"`
}

// RichSentence is a Sentence prepared for display: its outputs are grouped
// into Goals/Messages blocks and surrounding whitespace has been folded
// into prefixes and suffixes. Contents is nil for synthetic sentences that
// only carry outputs.
type RichSentence struct {
	Contents *string  `json:"contents"`
	Outputs  []Output `json:"outputs"`
	Annots   Annots   `json:"annots"`
	Prefixes []string `json:"prefixes"`
	Suffixes []string `json:"suffixes"`
}

// Fragment is the sealed interface over the pieces of an annotated chunk.
// Only Text, Sentence and RichSentence implement it.
type Fragment interface {
	fragment()
}

func (Text) fragment()         {}
func (Sentence) fragment()     {}
func (RichSentence) fragment() {}

// Output is the sealed interface over the output blocks of a RichSentence.
// Only Goals and Messages implement it.
type Output interface {
	output()
}

func (Goals) output()    {}
func (Messages) output() {}

// Movie is a fully annotated document: one fragment list per input chunk.
type Movie [][]Fragment

// GeneratorInfo identifies the prover that produced an annotated document.
type GeneratorInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Fmt renders the generator for banners and meta tags.
func (g GeneratorInfo) Fmt(includeVersion bool) string {
	if includeVersion && g.Version != "" {
		return fmt.Sprintf("%s v%s", g.Name, g.Version)
	}
	return g.Name
}

// StringPtr returns a pointer to s. Convenience for optional fields.
func StringPtr(s string) *string {
	return &s
}
