package serde

import (
	"encoding/json"
	"fmt"

	"github.com/mattam82/alectryon/internal/document"
)

// Plain is the tagged-object serializer: typed values become JSON objects
// carrying a "_type" alias plus named fields. It performs no
// deduplication and is the cache and interchange format.
type Plain struct{}

// Encode converts a document value (or any nesting of lists, maps and
// scalars around document values) into a JSON-marshalable tree.
func (Plain) Encode(v any) (any, error) {
	return plainEncode(v)
}

// Decode is the inverse of Encode: it rebuilds document values from a
// JSON-decoded tree (as produced by encoding/json into any).
func (Plain) Decode(v any) (any, error) {
	return plainDecode(v)
}

func plainEncode(v any) (any, error) {
	if alias, fields, ok := typedNode(v); ok {
		obj := make(map[string]any, len(fields)+1)
		obj["_type"] = alias
		for i, name := range fieldNames[alias] {
			enc, err := plainEncode(fields[i])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", alias, name, err)
			}
			obj[name] = enc
		}
		return obj, nil
	}

	if list, ok := asList(v); ok {
		out := make([]any, len(list))
		for i, e := range list {
			enc, err := plainEncode(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = enc
		}
		return out, nil
	}

	switch x := v.(type) {
	case nil:
		return nil, nil
	case string, bool, int, int64, float64, json.Number:
		return x, nil
	case *string:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case document.Annots:
		return map[string]any{"unfold": x.Unfold, "fails": x.Fails}, nil
	case map[string]any:
		if _, clash := x["_type"]; clash {
			return nil, fmt.Errorf(`map uses reserved key "_type"`)
		}
		out := make(map[string]any, len(x))
		for k, e := range x {
			enc, err := plainEncode(e)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			out[k] = enc
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot encode %T", v)
}

func plainDecode(v any) (any, error) {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			dec, err := plainDecode(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = dec
		}
		return out, nil
	case map[string]any:
		alias, tagged := x["_type"].(string)
		if !tagged {
			out := make(map[string]any, len(x))
			for k, e := range x {
				dec, err := plainDecode(e)
				if err != nil {
					return nil, fmt.Errorf("%q: %w", k, err)
				}
				out[k] = dec
			}
			return out, nil
		}
		names := fieldNames[alias]
		if names == nil {
			return nil, fmt.Errorf("unknown type alias %q", alias)
		}
		fields := make([]any, len(names))
		for i, name := range names {
			dec, err := plainDecode(x[name])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", alias, name, err)
			}
			fields[i] = dec
		}
		return makeTyped(alias, fields)
	}
	return v, nil
}

// EncodeMovie serializes a movie with the plain serializer.
func EncodeMovie(m document.Movie) (any, error) {
	return Plain{}.Encode(m)
}

// DecodeMovie parses movie JSON bytes into document form.
func DecodeMovie(data []byte) (document.Movie, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing movie JSON: %w", err)
	}
	dec, err := Plain{}.Decode(raw)
	if err != nil {
		return nil, err
	}
	return toMovie(dec)
}

// toMovie coerces a decoded value to chunk-grouped fragment lists.
func toMovie(v any) (document.Movie, error) {
	chunks, ok := asList(v)
	if !ok {
		return nil, fmt.Errorf("movie: expected a list of chunks, got %T", v)
	}
	movie := make(document.Movie, len(chunks))
	for i, chunk := range chunks {
		frs, ok := asList(chunk)
		if !ok {
			return nil, fmt.Errorf("movie[%d]: expected a fragment list, got %T", i, chunk)
		}
		fragments := make([]document.Fragment, len(frs))
		for j, e := range frs {
			fr, ok := e.(document.Fragment)
			if !ok {
				return nil, fmt.Errorf("movie[%d][%d]: expected a fragment, got %T", i, j, e)
			}
			fragments[j] = fr
		}
		movie[i] = fragments
	}
	return movie, nil
}
