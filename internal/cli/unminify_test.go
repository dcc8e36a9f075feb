package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattam82/alectryon/internal/document"
	"github.com/mattam82/alectryon/internal/htmlgen"
)

// minifiedPage renders a page whose repeated goal collapses into a
// backreference.
func minifiedPage(t *testing.T) string {
	t.Helper()
	goal := document.Goal{Conclusion: "true", Hypotheses: []document.Hypothesis{}}
	movie := document.Movie{{
		document.Sentence{Contents: "split.", Goals: []document.Goal{goal, goal}},
	}}

	g := htmlgen.NewGenerator(nil, "proof", true)
	snippets, err := g.Gen(movie)
	require.NoError(t, err)
	page, err := htmlgen.StandalonePage(snippets, htmlgen.PageOptions{
		Title:    "proof",
		Dialect:  htmlgen.DialectHTML5,
		Minified: true,
	})
	require.NoError(t, err)
	require.Contains(t, page, "<q>")
	return page
}

func unminifyCmd(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewUnminifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestUnminifyExpandsPage(t *testing.T) {
	input := filepath.Join(t.TempDir(), "proof.min.html")
	require.NoError(t, os.WriteFile(input, []byte(minifiedPage(t)), 0o644))

	buf, err := unminifyCmd(t, input)
	require.NoError(t, err)

	outFile := filepath.Join(filepath.Dir(input), "proof.html")
	assert.Contains(t, buf.String(), outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	expanded := string(data)
	assert.NotContains(t, expanded, "<q>")
	assert.NotContains(t, expanded, "querySelectorAll")
	assert.Equal(t, 2, strings.Count(expanded, "goal-conclusion"))
}

func TestUnminifyStdinToStdout(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewUnminifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(minifiedPage(t)))
	cmd.SetArgs([]string{"-"})

	require.NoError(t, cmd.Execute())
	assert.NotContains(t, buf.String(), "<q>")
	assert.Contains(t, buf.String(), "goal-conclusion")
}

func TestUnminifyMalformedReference(t *testing.T) {
	input := filepath.Join(t.TempDir(), "bad.html")
	page := `<pre class="alectryon-io"><div class="goal-hyps"><q>zz</q></div></pre>`
	require.NoError(t, os.WriteFile(input, []byte(page), 0o644))

	buf, err := unminifyCmd(t, input)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeBadInput)
}

func TestUnminifyMissingInput(t *testing.T) {
	_, err := unminifyCmd(t, filepath.Join(t.TempDir(), "absent.html"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUnminifyOutputPath(t *testing.T) {
	assert.Equal(t, "proof.html", unminifyOutputPath("proof.min.html", ""))
	assert.Equal(t, "page.full.html", unminifyOutputPath("page.html", ""))
	assert.Equal(t, "out.html", unminifyOutputPath("proof.min.html", "out.html"))
	assert.Equal(t, "-", unminifyOutputPath("-", ""))
}
