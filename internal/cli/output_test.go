package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(RenderResult{Input: "proof.lean", Output: "proof.html", Backend: "webpage"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success(RenderResult{Input: "proof.lean", Output: "proof.html", Cached: true}))
	assert.Equal(t, "proof.lean -> proof.html (cached)\n", buf.String())
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeProver, "annotation failed", []string{"line 3: unknown tactic"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeProver, resp.Error.Code)
	assert.Equal(t, "annotation failed", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Error(ErrCodeInvalid, "bad movie", nil))
	assert.Contains(t, buf.String(), "Error [E006]: bad movie")
}

func TestVerboseLogRouting(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	formatter.VerboseLog("annotating %s", "proof.lean")
	assert.Empty(t, out.String())
	assert.Equal(t, "annotating proof.lean\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("ignored")
	assert.Equal(t, "annotating proof.lean\n", errOut.String())
}

func TestExitError(t *testing.T) {
	base := errors.New("boom")
	err := WrapExitError(ExitCommandError, "reading input", base)
	assert.Equal(t, "reading input: boom", err.Error())
	assert.Equal(t, base, errors.Unwrap(err))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))

	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "failed")))
}
