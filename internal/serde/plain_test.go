package serde

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattam82/alectryon/internal/document"
)

// exampleMovie mirrors the two-chunk movie from the API documentation:
// "Goal True /\ True. split. " and "all: eauto.".
func exampleMovie() document.Movie {
	goalTT := document.Goal{Conclusion: `True /\ True`, Hypotheses: []document.Hypothesis{}}
	goalT := document.Goal{Conclusion: "True", Hypotheses: []document.Hypothesis{}}

	return document.Movie{
		{
			document.Sentence{
				Contents: `Goal True /\ True.`,
				Messages: []document.Message{},
				Goals:    []document.Goal{goalTT},
			},
			document.Text{Contents: " "},
			document.Sentence{
				Contents: "split.",
				Messages: []document.Message{},
				Goals:    []document.Goal{goalT, goalT},
			},
			document.Text{Contents: " "},
		},
		{
			document.Sentence{
				Contents: "all: eauto.",
				Messages: []document.Message{},
				Goals:    []document.Goal{},
			},
		},
	}
}

func TestPlainEncodeTagsTypes(t *testing.T) {
	enc, err := Plain{}.Encode(document.Text{Contents: "hi"})
	require.NoError(t, err)

	obj, ok := enc.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "text", obj["_type"])
	assert.Equal(t, "hi", obj["contents"])
}

func TestPlainEncodeGolden(t *testing.T) {
	enc, err := EncodeMovie(exampleMovie())
	require.NoError(t, err)

	data, err := MarshalJSON(enc, "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "plain_movie", data)
}

func TestPlainRoundTrip(t *testing.T) {
	movie := exampleMovie()

	enc, err := EncodeMovie(movie)
	require.NoError(t, err)
	data, err := json.Marshal(enc)
	require.NoError(t, err)

	decoded, err := DecodeMovie(data)
	require.NoError(t, err)
	assert.Equal(t, movie, decoded)
}

func TestPlainDecodeNullBodyAndName(t *testing.T) {
	data := []byte(`[[{"_type": "sentence", "contents": "intro x.",
		"messages": [],
		"goals": [{"_type": "goal", "name": null, "conclusion": "P x",
		           "hypotheses": [{"_type": "hypothesis", "names": ["x"],
		                           "body": null, "type": "nat"}]}]}]]`)

	movie, err := DecodeMovie(data)
	require.NoError(t, err)
	require.Len(t, movie, 1)

	s := movie[0][0].(document.Sentence)
	require.Len(t, s.Goals, 1)
	assert.Nil(t, s.Goals[0].Name)
	require.Len(t, s.Goals[0].Hypotheses, 1)
	assert.Nil(t, s.Goals[0].Hypotheses[0].Body)
	assert.Equal(t, []string{"x"}, s.Goals[0].Hypotheses[0].Names)
}

func TestPlainEncodeRejectsReservedKey(t *testing.T) {
	_, err := Plain{}.Encode(map[string]any{"_type": "boom"})
	assert.Error(t, err)
}

func TestPlainDecodeUnknownAlias(t *testing.T) {
	_, err := Plain{}.Decode(map[string]any{"_type": "widget"})
	assert.Error(t, err)
}

func TestPlainRichSentenceRoundTrip(t *testing.T) {
	rich := document.RichSentence{
		Contents: document.StringPtr("split."),
		Outputs: []document.Output{
			document.Messages{Messages: []document.Message{{Contents: "ok"}}},
			document.Goals{Goals: []document.Goal{{Conclusion: "True"}}},
		},
		Annots:   document.Annots{Unfold: true},
		Prefixes: []string{"  "},
		Suffixes: []string{"\n"},
	}

	enc, err := Plain{}.Encode(rich)
	require.NoError(t, err)
	dec, err := Plain{}.Decode(enc)
	require.NoError(t, err)

	got, ok := dec.(document.RichSentence)
	require.True(t, ok)
	assert.Equal(t, rich.Annots, got.Annots)
	assert.Equal(t, rich.Prefixes, got.Prefixes)
	require.Len(t, got.Outputs, 2)
}
