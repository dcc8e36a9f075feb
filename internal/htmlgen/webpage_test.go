package htmlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattam82/alectryon/internal/document"
)

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("html5")
	require.NoError(t, err)
	assert.Equal(t, DialectHTML5, d)

	_, err = ParseDialect("xhtml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xhtml")
}

func TestWrapClasses(t *testing.T) {
	assert.Equal(t, "alectryon-root", WrapClasses())
	assert.Equal(t, "alectryon-root alectryon-centered", WrapClasses("centered"))
	assert.Equal(t, "alectryon-root alectryon-floating alectryon-coq", WrapClasses("floating", "coq"))
	assert.Equal(t, "alectryon-root", WrapClasses(""))
}

func TestBanner(t *testing.T) {
	gen := &document.GeneratorInfo{Name: "Lean3", Version: "3.4.2"}
	rendered, err := RenderNode(Banner(gen, true))
	require.NoError(t, err)
	assert.Contains(t, rendered, `class="alectryon-banner"`)
	assert.Contains(t, rendered, "Lean3 v3.4.2")

	rendered, err = RenderNode(Banner(gen, false))
	require.NoError(t, err)
	assert.Contains(t, rendered, "Lean3")
	assert.NotContains(t, rendered, "3.4.2")

	assert.Nil(t, Banner(nil, true))
}

func TestMarkLongLines(t *testing.T) {
	block := elem("pre", "class", "alectryon-io")
	block.AppendChild(text("short\n" + strings.Repeat("x", 100) + "\nshort"))

	MarkLongLines(block, 72)
	assert.True(t, hasClass(block, "alectryon-long-lines"))

	under := elem("pre", "class", "alectryon-io")
	under.AppendChild(text(strings.Repeat("x", 72)))
	MarkLongLines(under, 72)
	assert.False(t, hasClass(under, "alectryon-long-lines"))

	disabled := elem("pre", "class", "alectryon-io")
	disabled.AppendChild(text(strings.Repeat("x", 500)))
	MarkLongLines(disabled, -1)
	assert.False(t, hasClass(disabled, "alectryon-long-lines"))
}

func TestLongestLineSpansElements(t *testing.T) {
	// A line continuing across element boundaries counts as one line.
	block := elem("pre")
	block.AppendChild(text(strings.Repeat("a", 40)))
	span := elem("span")
	span.AppendChild(text(strings.Repeat("b", 40)))
	block.AppendChild(span)
	assert.Equal(t, 80, longestLine(block))
}

func TestStandalonePage(t *testing.T) {
	g := NewGenerator(nil, "", true)
	snippets, err := g.Gen(document.Movie{
		{document.Sentence{Contents: "split.", Goals: []document.Goal{trueGoal()}}},
		{document.Sentence{Contents: "trivial.", Goals: []document.Goal{trueGoal()}}},
	})
	require.NoError(t, err)

	page, err := StandalonePage(snippets, PageOptions{
		Title:    "test.v",
		Dialect:  DialectHTML5,
		Style:    "centered",
		Banner:   Banner(&document.GeneratorInfo{Name: "Lean3"}, false),
		Minified: g.Minified(),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>\n"))
	assert.Contains(t, page, `<meta charset="utf-8"`)
	assert.Contains(t, page, `class="alectryon-root alectryon-centered"`)
	assert.Contains(t, page, `class="alectryon-banner"`)
	assert.Contains(t, page, "<title>test.v</title>")
	assert.Contains(t, page, UnminifyScript)
	assert.Contains(t, page, "alectryon.css")
	assert.Contains(t, page, "alectryon.js")
}

func TestStandalonePageHTML4(t *testing.T) {
	page, err := StandalonePage(nil, PageOptions{
		Title:   "doc",
		Dialect: DialectHTML4,
	})
	require.NoError(t, err)
	assert.Contains(t, page, "HTML 4.01 Transitional")
	assert.Contains(t, page, `http-equiv="Content-Type"`)
	assert.NotContains(t, page, UnminifyScript)
}

func TestStandalonePageScriptInsideBody(t *testing.T) {
	g := NewGenerator(nil, "", true)
	snippets, err := g.Gen(document.Movie{
		{document.Sentence{Contents: "split.", Goals: []document.Goal{trueGoal(), trueGoal()}}},
	})
	require.NoError(t, err)

	page, err := StandalonePage(snippets, PageOptions{
		Title:    "doc",
		Dialect:  DialectHTML5,
		Minified: g.Minified(),
	})
	require.NoError(t, err)

	script := strings.Index(page, UnminifyScript)
	end := strings.Index(page, "</body>")
	require.NotEqual(t, -1, script)
	require.NotEqual(t, -1, end)
	assert.Less(t, script, end, "resolution script belongs inside the body")
	assert.True(t, strings.HasSuffix(page, "</html>\n"))
}

func TestDialectVoidElements(t *testing.T) {
	goal := trueGoal()
	g := NewGenerator(nil, "doc", false)
	snippets, err := g.Gen(document.Movie{
		{document.Sentence{Contents: "split.", Goals: []document.Goal{goal, goal}}},
	})
	require.NoError(t, err)

	html4, err := StandalonePage(snippets, PageOptions{Title: "doc", Dialect: DialectHTML4})
	require.NoError(t, err)
	assert.Contains(t, html4, "<hr>")
	assert.NotContains(t, html4, "<hr/>")
	assert.NotContains(t, html4, "/>")

	g5 := NewGenerator(nil, "doc", false)
	snippets5, err := g5.Gen(document.Movie{
		{document.Sentence{Contents: "split.", Goals: []document.Goal{goal, goal}}},
	})
	require.NoError(t, err)
	html5, err := StandalonePage(snippets5, PageOptions{Title: "doc", Dialect: DialectHTML5})
	require.NoError(t, err)
	assert.Contains(t, html5, "<hr/>")
}

func TestRenderNodeHTML4(t *testing.T) {
	div := elem("div", "title", `a "quoted" & plain`)
	div.AppendChild(text("1 < 2 & 3 > 2"))
	div.AppendChild(elem("input", "type", "checkbox", "checked", ""))
	script := elem("script")
	script.AppendChild(text("if (a < b && c) { run(); }"))
	div.AppendChild(script)

	out, err := RenderNodeHTML4(div)
	require.NoError(t, err)
	assert.Contains(t, out, "1 &lt; 2 &amp; 3 &gt; 2")
	assert.Contains(t, out, `<input type="checkbox" checked="">`)
	assert.Contains(t, out, "<script>if (a < b && c) { run(); }</script>")
	assert.Contains(t, out, "&#34;quoted&#34; &amp; plain")
}

func TestSnippetsPage(t *testing.T) {
	g := NewGenerator(nil, "", false)
	snippets, err := g.Gen(document.Movie{
		{document.Sentence{Contents: "split."}},
		{document.Sentence{Contents: "trivial."}},
	})
	require.NoError(t, err)

	out, err := SnippetsPage(snippets)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, BlockEndMarker))
	parts := strings.Split(out, BlockEndMarker+"\n")
	assert.Len(t, parts, 3)
	assert.Empty(t, parts[2])
}
