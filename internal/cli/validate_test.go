package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateCmd(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestValidateAcceptsMovie(t *testing.T) {
	input := writeSampleMovie(t)

	buf, err := validateCmd(t, "text", input)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "valid")
}

func TestValidateAcceptsMovieJSON(t *testing.T) {
	input := writeSampleMovie(t)

	buf, err := validateCmd(t, "json", input)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, true, resp.Data.(map[string]any)["valid"])
}

func TestValidateRejectsUnknownTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.io.json")
	require.NoError(t, os.WriteFile(path, []byte(`[[{"_type": "widget"}]]`), 0o644))

	buf, err := validateCmd(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeInvalid)
}

func TestValidateReportsViolationDetails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.io.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`[[{"_type": "sentence", "contents": 42, "messages": [], "goals": []}]]`), 0o644))

	buf, err := validateCmd(t, "json", path)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details)
}

func TestValidateContinuesPastInvalidFiles(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.io.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[[{"_type": "widget"}]]`), 0o644))
	good := writeSampleMovie(t)

	buf, err := validateCmd(t, "text", bad, good)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 invalid")
	assert.Contains(t, buf.String(), "valid")
}

func TestValidateMissingInput(t *testing.T) {
	_, err := validateCmd(t, "text", filepath.Join(t.TempDir(), "absent.io.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
