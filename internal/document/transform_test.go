package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitIOGroupsOutputs(t *testing.T) {
	fragments := []Fragment{
		Sentence{
			Contents: "Goal True.",
			Messages: []Message{{Contents: "note"}},
			Goals:    []Goal{{Conclusion: "True"}},
		},
	}

	out := CommitIO(fragments)
	require.Len(t, out, 1)

	rich, ok := out[0].(RichSentence)
	require.True(t, ok)
	require.NotNil(t, rich.Contents)
	assert.Equal(t, "Goal True.", *rich.Contents)

	require.Len(t, rich.Outputs, 2)
	msgs, ok := rich.Outputs[0].(Messages)
	require.True(t, ok, "messages block comes first")
	assert.Len(t, msgs.Messages, 1)
	goals, ok := rich.Outputs[1].(Goals)
	require.True(t, ok)
	assert.Len(t, goals.Goals, 1)
}

func TestCommitIOOmitsEmptyBlocks(t *testing.T) {
	out := CommitIO([]Fragment{Sentence{Contents: "trivial."}})
	rich := out[0].(RichSentence)
	assert.Empty(t, rich.Outputs, "no output blocks for a silent sentence")
}

func TestCommitIOKeepsText(t *testing.T) {
	out := CommitIO([]Fragment{Text{Contents: "(* comment *)"}})
	require.Len(t, out, 1)
	_, ok := out[0].(Text)
	assert.True(t, ok)
}

func TestGroupWhitespaceSplitsAtNewline(t *testing.T) {
	fragments := CommitIO([]Fragment{
		Sentence{Contents: "Goal True."},
		Text{Contents: "\n  "},
		Sentence{Contents: "trivial."},
	})

	out := GroupWhitespace(fragments)
	require.Len(t, out, 2)

	first := out[0].(RichSentence)
	assert.Equal(t, []string{"\n"}, first.Suffixes,
		"run through the first newline attaches to the preceding sentence")

	second := out[1].(RichSentence)
	assert.Equal(t, []string{"  "}, second.Prefixes,
		"indentation attaches to the following sentence")
}

func TestGroupWhitespaceLeadingAndTrailing(t *testing.T) {
	fragments := CommitIO([]Fragment{
		Text{Contents: "  "},
		Sentence{Contents: "trivial."},
		Text{Contents: " "},
	})

	out := GroupWhitespace(fragments)
	require.Len(t, out, 1)

	rich := out[0].(RichSentence)
	assert.Equal(t, []string{"  "}, rich.Prefixes)

	// Trailing whitespace with no newline still attaches as a suffix.
	assert.Equal(t, []string{" "}, rich.Suffixes)
}

func TestGroupWhitespaceKeepsComments(t *testing.T) {
	fragments := CommitIO([]Fragment{
		Sentence{Contents: "trivial."},
		Text{Contents: "(* not whitespace *)"},
	})

	out := GroupWhitespace(fragments)
	require.Len(t, out, 2)
	txt, ok := out[1].(Text)
	require.True(t, ok)
	assert.Equal(t, "(* not whitespace *)", txt.Contents)
}

func TestGeneratorInfoFmt(t *testing.T) {
	g := GeneratorInfo{Name: "Lean3", Version: "3.4.2"}
	assert.Equal(t, "Lean3 v3.4.2", g.Fmt(true))
	assert.Equal(t, "Lean3", g.Fmt(false))
}
