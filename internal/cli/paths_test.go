package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	for _, name := range []string{"webpage", "snippets-html", "json"} {
		b, err := ParseBackend(name)
		require.NoError(t, err)
		assert.Equal(t, name, string(b))
	}

	_, err := ParseBackend("latex")
	assert.Error(t, err)
}

func TestInferFrontend(t *testing.T) {
	f, err := InferFrontend("proof.lean", "")
	require.NoError(t, err)
	assert.Equal(t, FrontendCode, f)

	f, err = InferFrontend("proof.io.json", "")
	require.NoError(t, err)
	assert.Equal(t, FrontendMovie, f)

	_, err = InferFrontend("notes.txt", "")
	assert.Error(t, err)
}

func TestInferFrontendStdin(t *testing.T) {
	f, err := InferFrontend("-", "proof.lean")
	require.NoError(t, err)
	assert.Equal(t, FrontendCode, f)

	// Unnamed stdin defaults to prover code.
	f, err = InferFrontend("-", "")
	require.NoError(t, err)
	assert.Equal(t, FrontendCode, f)
}

func TestOutputPathExplicit(t *testing.T) {
	assert.Equal(t, "out.html", OutputPath("proof.lean", "", "out.html", "", BackendWebpage))
	assert.Equal(t, "-", OutputPath("proof.lean", "", "-", "", BackendWebpage))
}

func TestOutputPathComputed(t *testing.T) {
	assert.Equal(t,
		filepath.Join("src", "proof.html"),
		OutputPath(filepath.Join("src", "proof.lean"), "", "", "", BackendWebpage))
	assert.Equal(t,
		filepath.Join("out", "proof.html"),
		OutputPath(filepath.Join("src", "proof.lean"), "", "", "out", BackendWebpage))
	assert.Equal(t,
		filepath.Join("src", "proof.io.json"),
		OutputPath(filepath.Join("src", "proof.lean"), "", "", "", BackendJSON))
	assert.Equal(t,
		filepath.Join("src", "proof.snippets.html"),
		OutputPath(filepath.Join("src", "proof.lean"), "", "", "", BackendSnippets))
}

func TestOutputPathStdin(t *testing.T) {
	// Unnamed stdin renders to stdout.
	assert.Equal(t, "-", OutputPath("-", "", "", "", BackendWebpage))
	// Named stdin gets a computed path.
	assert.Equal(t, "proof.html", OutputPath("-", "proof.lean", "", "", BackendWebpage))
}

func TestGensymStem(t *testing.T) {
	assert.Equal(t, "proof", gensymStem("proof.lean"))
	assert.Equal(t, "a_b-c", gensymStem("a_b c.lean"))
	assert.Equal(t, "nat-pow", gensymStem(filepath.Join("src", "nat.pow")))
}
