package cli

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Frontend is the kind of input being processed.
type Frontend string

const (
	FrontendCode  Frontend = "code"  // prover source, to be annotated
	FrontendMovie Frontend = "movie" // pre-annotated JSON
)

// Backend is the kind of output to produce.
type Backend string

const (
	BackendWebpage  Backend = "webpage"
	BackendSnippets Backend = "snippets-html"
	BackendJSON     Backend = "json"
)

var backendExts = map[Backend]string{
	BackendWebpage:  ".html",
	BackendSnippets: ".snippets.html",
	BackendJSON:     ".io.json",
}

// inputExts are the recognized input extensions, stripped when deriving
// output names.
var inputExts = map[string]Frontend{
	".lean": FrontendCode,
	".json": FrontendMovie,
}

// ParseBackend validates a backend name from a flag.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendWebpage, BackendSnippets, BackendJSON:
		return Backend(s), nil
	}
	return "", fmt.Errorf("unknown backend %q (expected webpage, snippets-html, or json)", s)
}

// InferFrontend picks the frontend for an input path. Stdin ("-") is
// classified by stdinFilename when given, else treated as prover code.
func InferFrontend(input, stdinFilename string) (Frontend, error) {
	name := input
	if input == "-" {
		if stdinFilename == "" {
			return FrontendCode, nil
		}
		name = stdinFilename
	}
	ext := strings.ToLower(filepath.Ext(name))
	if fe, ok := inputExts[ext]; ok {
		return fe, nil
	}
	return "", fmt.Errorf("unrecognized input extension %q in %s", ext, name)
}

// displayName is the name rendered in titles and used to derive output
// paths and element id stems.
func displayName(input, stdinFilename string) string {
	if input == "-" {
		if stdinFilename != "" {
			return stdinFilename
		}
		return "stdin"
	}
	return input
}

// stripInputExt removes a recognized input extension.
func stripInputExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := inputExts[ext]; ok {
		return name[:len(name)-len(ext)]
	}
	return name
}

// OutputPath computes where rendered output goes. An explicit output
// wins ("-" meaning stdout); otherwise the input name with the
// backend's extension, placed in outputDir or next to the input.
func OutputPath(input, stdinFilename, output, outputDir string, backend Backend) string {
	if output != "" {
		return output
	}
	if input == "-" && stdinFilename == "" {
		return "-"
	}
	name := stripInputExt(filepath.Base(displayName(input, stdinFilename))) + backendExts[backend]
	if outputDir != "" {
		return filepath.Join(outputDir, name)
	}
	if input == "-" {
		return name
	}
	return filepath.Join(filepath.Dir(input), name)
}

// gensymStem scrubs a document name into an id prefix so ids from
// several documents can share a page without colliding.
func gensymStem(name string) string {
	base := stripInputExt(filepath.Base(name))
	var sb strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
