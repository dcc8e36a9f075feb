package unminify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/mattam82/alectryon/internal/document"
	"github.com/mattam82/alectryon/internal/htmlgen"
)

// reparse runs a snippet through the HTML parser and back, normalizing
// it for comparison.
func reparse(t *testing.T, s string) string {
	t.Helper()
	root, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	var sb strings.Builder
	require.NoError(t, html.Render(&sb, root))
	return sb.String()
}

func proofMovie() document.Movie {
	goal := document.Goal{
		Conclusion: "True /\\ True",
		Hypotheses: []document.Hypothesis{{Names: []string{"H"}, Type: "True"}},
	}
	sub := document.Goal{
		Conclusion: "True",
		Hypotheses: goal.Hypotheses,
	}
	return document.Movie{{
		document.Sentence{Contents: "split.", Goals: []document.Goal{goal, sub}},
		document.Text{Contents: " "},
		document.Sentence{Contents: "all: exact I.", Goals: []document.Goal{sub}},
	}}
}

func render(t *testing.T, minify bool) string {
	t.Helper()
	g := htmlgen.NewGenerator(nil, "doc", minify)
	snippets, err := g.Gen(proofMovie())
	require.NoError(t, err)
	rendered, err := htmlgen.RenderNode(snippets[0])
	require.NoError(t, err)
	return rendered
}

func TestResolveRoundTrip(t *testing.T) {
	minified := render(t, true)
	full := render(t, false)
	require.NotEqual(t, minified, full)
	require.Contains(t, minified, "<q>")

	var out strings.Builder
	require.NoError(t, Resolve(strings.NewReader(minified), &out))
	assert.Equal(t, reparse(t, full), out.String())
	assert.NotContains(t, out.String(), "<q>")
}

func TestResolveKeepsUnminifiedInput(t *testing.T) {
	full := render(t, false)
	var out strings.Builder
	require.NoError(t, Resolve(strings.NewReader(full), &out))
	assert.Equal(t, reparse(t, full), out.String())
}

func TestResolveDropsResolutionScript(t *testing.T) {
	minified := render(t, true) + "\n" + htmlgen.UnminifyScript
	var out strings.Builder
	require.NoError(t, Resolve(strings.NewReader(minified), &out))
	assert.NotContains(t, out.String(), "Resolve backreferences")
}

func TestResolveMalformedRef(t *testing.T) {
	in := `<pre class="alectryon-io"><div class="goal-conclusion">x</div><q>zz</q></pre>`
	var out strings.Builder
	err := Resolve(strings.NewReader(in), &out)
	var m *MalformedRefError
	require.ErrorAs(t, err, &m)
	assert.Equal(t, "zz", m.Text)
}

func TestResolveOutOfRange(t *testing.T) {
	in := `<pre class="alectryon-io"><div class="goal-conclusion">x</div><q>ff</q></pre>`
	var out strings.Builder
	err := Resolve(strings.NewReader(in), &out)
	var r *RangeError
	require.ErrorAs(t, err, &r)
	assert.Equal(t, 255, r.Index)
	assert.Equal(t, 1, r.Count)
}

func TestResolveForwardRef(t *testing.T) {
	in := `<pre class="alectryon-io"><q>0</q><div class="goal-conclusion">x</div></pre>`
	var out strings.Builder
	err := Resolve(strings.NewReader(in), &out)
	var f *ForwardRefError
	require.ErrorAs(t, err, &f)
	assert.Equal(t, 0, f.Index)
}

func TestResolveIgnoresQuotesOutsideIO(t *testing.T) {
	// <q> is a regular quotation element outside alectryon-io blocks.
	in := `<p>As they say, <q>ff</q>.</p>`
	var out strings.Builder
	require.NoError(t, Resolve(strings.NewReader(in), &out))
	assert.Contains(t, out.String(), "<q>ff</q>")
}

func TestNestedTargetResolution(t *testing.T) {
	// A goal-hyps block whose repeat target itself contained a pointer
	// must be cloned after that inner pointer was resolved.
	movie := document.Movie{{
		document.Sentence{Contents: "intro.", Goals: []document.Goal{{
			Conclusion: "P",
			Hypotheses: []document.Hypothesis{{Names: []string{"H"}, Type: "P"}},
		}}},
		document.Sentence{Contents: "revert H.", Goals: []document.Goal{{
			Conclusion: "P -> P",
			Hypotheses: []document.Hypothesis{{Names: []string{"H"}, Type: "P"}, {Names: []string{"H'"}, Type: "Q"}},
		}}},
		document.Sentence{Contents: "idtac.", Goals: []document.Goal{{
			Conclusion: "P -> P",
			Hypotheses: []document.Hypothesis{{Names: []string{"H"}, Type: "P"}, {Names: []string{"H'"}, Type: "Q"}},
		}}},
	}}

	g := htmlgen.NewGenerator(nil, "", true)
	snippets, err := g.Gen(movie)
	require.NoError(t, err)
	minified, err := htmlgen.RenderNode(snippets[0])
	require.NoError(t, err)

	gFull := htmlgen.NewGenerator(nil, "", false)
	fullSnippets, err := gFull.Gen(movie)
	require.NoError(t, err)
	full, err := htmlgen.RenderNode(fullSnippets[0])
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, Resolve(strings.NewReader(minified), &out))
	assert.Equal(t, reparse(t, full), out.String())
}
