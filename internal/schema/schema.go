// Package schema validates movie JSON against an embedded CUE schema.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed movie.cue
var movieCUE string

// ValidationError is one schema violation with its position in the
// validated document.
type ValidationError struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Path, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Validate checks movie JSON against the schema. filename labels
// positions in returned errors. A nil slice means the document is
// valid; a non-nil error means validation itself could not run.
func Validate(filename string, data []byte) ([]*ValidationError, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(movieCUE, cue.Filename("movie.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling movie schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Movie"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("looking up movie definition: %w", err)
	}

	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("invalid JSON: %v", err)}}, nil
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return []*ValidationError{{Message: fmt.Sprintf("invalid JSON: %v", err)}}, nil
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		var out []*ValidationError
		for _, e := range cueerrors.Errors(err) {
			ve := &ValidationError{
				Path:    strings.Join(e.Path(), "."),
				Message: e.Error(),
			}
			if positions := cueerrors.Positions(e); len(positions) > 0 {
				ve.Pos = positions[0]
			}
			out = append(out, ve)
		}
		return out, nil
	}
	return nil, nil
}
