package serde

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mattam82/alectryon/internal/document"
)

// Dedup serializes like Plain but emits each typed value at most once.
// The first occurrence becomes {"&": <alias>, "_": [fields...]}; later
// structurally-equal occurrences become {"*": N} where N indexes the
// table of typed objects emitted so far, children before parents.
type Dedup struct{}

// Encode converts v to a deduplicated JSON tree.
func (Dedup) Encode(v any) (any, error) {
	table := make(map[string]int)
	return dedupEncode(v, table)
}

func dedupEncode(v any, table map[string]int) (any, error) {
	if alias, fields, ok := typedNode(v); ok {
		key, err := nodeKey(v)
		if err != nil {
			return nil, err
		}
		if ref, seen := table[key]; seen {
			return map[string]any{"*": ref}, nil
		}
		encFields := make([]any, len(fields))
		for i, f := range fields {
			enc, err := dedupEncode(f, table)
			if err != nil {
				return nil, fmt.Errorf("%s._[%d]: %w", alias, i, err)
			}
			encFields[i] = enc
		}
		// Children claim their slots first; the parent's index is
		// assigned only once its fields are fully encoded. The decoder
		// appends in the same order.
		table[key] = len(table)
		return map[string]any{"&": alias, "_": encFields}, nil
	}

	if list, ok := asList(v); ok {
		out := make([]any, len(list))
		for i, e := range list {
			enc, err := dedupEncode(e, table)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = enc
		}
		return out, nil
	}

	switch x := v.(type) {
	case map[string]any:
		if err := checkReservedKeys(x); err != nil {
			return nil, err
		}
		out := make(map[string]any, len(x))
		for _, k := range sortedKeys(x) {
			enc, err := dedupEncode(x[k], table)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			out[k] = enc
		}
		return out, nil
	case document.Annots:
		return map[string]any{"fails": x.Fails, "unfold": x.Unfold}, nil
	case *string:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case nil, string, bool, int, int64, float64, json.Number:
		return x, nil
	}
	return nil, fmt.Errorf("cannot encode %T", v)
}

// Decode rebuilds document values from a deduplicated tree. When copy is
// true, pointer dereferences yield deep copies, so callers may mutate
// results freely; otherwise repeats share structure with the first
// occurrence.
func (Dedup) Decode(v any, copy bool) (any, error) {
	table := make([]any, 0)
	return dedupDecode(v, &table, copy)
}

func dedupDecode(v any, table *[]any, deep bool) (any, error) {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			dec, err := dedupDecode(e, table, deep)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = dec
		}
		return out, nil
	case map[string]any:
		if ptr, isPtr := x["*"]; isPtr {
			return deref(ptr, *table, deep)
		}
		if aliasRaw, isRef := x["&"]; isRef {
			alias, ok := aliasRaw.(string)
			if !ok {
				return nil, fmt.Errorf(`"&" tag must be a string, got %T`, aliasRaw)
			}
			fieldsRaw, ok := x["_"].([]any)
			if !ok {
				return nil, fmt.Errorf(`%s: missing "_" field list`, alias)
			}
			fields := make([]any, len(fieldsRaw))
			for i, e := range fieldsRaw {
				dec, err := dedupDecode(e, table, deep)
				if err != nil {
					return nil, fmt.Errorf("%s._[%d]: %w", alias, i, err)
				}
				fields[i] = dec
			}
			obj, err := makeTyped(alias, fields)
			if err != nil {
				return nil, err
			}
			*table = append(*table, obj)
			return obj, nil
		}
		out := make(map[string]any, len(x))
		for _, k := range sortedKeys(x) {
			dec, err := dedupDecode(x[k], table, deep)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			out[k] = dec
		}
		return out, nil
	}
	return v, nil
}

// FullDedup deduplicates every node, scalars and containers included.
// Every encoded node claims a table slot in emission order; repeats of
// any value become pointers.
type FullDedup struct{}

// Encode converts v to a fully deduplicated JSON tree.
func (FullDedup) Encode(v any) (any, error) {
	table := make(map[string]int)
	return fullEncode(v, table)
}

func fullEncode(v any, table map[string]int) (any, error) {
	key, err := nodeKey(v)
	if err != nil {
		return nil, err
	}
	if ref, seen := table[key]; seen {
		return map[string]any{"*": ref}, nil
	}
	val, err := fullEncodeNode(v, table)
	if err != nil {
		return nil, err
	}
	table[key] = len(table)
	return val, nil
}

func fullEncodeNode(v any, table map[string]int) (any, error) {
	if alias, fields, ok := typedNode(v); ok {
		encFields := make([]any, len(fields))
		for i, f := range fields {
			enc, err := fullEncode(f, table)
			if err != nil {
				return nil, fmt.Errorf("%s._[%d]: %w", alias, i, err)
			}
			encFields[i] = enc
		}
		return map[string]any{"&": alias, "_": encFields}, nil
	}
	if list, ok := asList(v); ok {
		out := make([]any, len(list))
		for i, e := range list {
			enc, err := fullEncode(e, table)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = enc
		}
		return out, nil
	}
	switch x := v.(type) {
	case map[string]any:
		if err := checkReservedKeys(x); err != nil {
			return nil, err
		}
		out := make(map[string]any, len(x))
		for _, k := range sortedKeys(x) {
			enc, err := fullEncode(x[k], table)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			out[k] = enc
		}
		return out, nil
	case document.Annots:
		// Re-enter through the map branch so the bool children claim
		// their slots; the decoder walks the same map generically.
		return fullEncodeNode(map[string]any{"fails": x.Fails, "unfold": x.Unfold}, table)
	case *string:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case nil, string, bool, int, int64, float64, json.Number:
		return x, nil
	}
	return nil, fmt.Errorf("cannot encode %T", v)
}

// Decode rebuilds values from a fully deduplicated tree.
func (FullDedup) Decode(v any, copy bool) (any, error) {
	table := make([]any, 0)
	return fullDecode(v, &table, copy)
}

func fullDecode(v any, table *[]any, deep bool) (any, error) {
	if m, ok := v.(map[string]any); ok {
		if ptr, isPtr := m["*"]; isPtr {
			return deref(ptr, *table, deep)
		}
	}
	obj, err := fullDecodeNode(v, table, deep)
	if err != nil {
		return nil, err
	}
	*table = append(*table, obj)
	return obj, nil
}

func fullDecodeNode(v any, table *[]any, deep bool) (any, error) {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			dec, err := fullDecode(e, table, deep)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = dec
		}
		return out, nil
	case map[string]any:
		if aliasRaw, isRef := x["&"]; isRef {
			alias, ok := aliasRaw.(string)
			if !ok {
				return nil, fmt.Errorf(`"&" tag must be a string, got %T`, aliasRaw)
			}
			fieldsRaw, ok := x["_"].([]any)
			if !ok {
				return nil, fmt.Errorf(`%s: missing "_" field list`, alias)
			}
			fields := make([]any, len(fieldsRaw))
			for i, e := range fieldsRaw {
				dec, err := fullDecode(e, table, deep)
				if err != nil {
					return nil, fmt.Errorf("%s._[%d]: %w", alias, i, err)
				}
				fields[i] = dec
			}
			return makeTyped(alias, fields)
		}
		out := make(map[string]any, len(x))
		for _, k := range sortedKeys(x) {
			dec, err := fullDecode(x[k], table, deep)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			out[k] = dec
		}
		return out, nil
	}
	return v, nil
}

// nodeKey computes the content key of a value via its plain encoding.
// This replaces structural identity: two values share a key exactly when
// their plain serializations hash identically.
func nodeKey(v any) (string, error) {
	plain, err := plainEncode(v)
	if err != nil {
		return "", err
	}
	return document.NodeKey(plain)
}

// deref resolves a {"*": N} pointer against the object table.
func deref(ptr any, table []any, deep bool) (any, error) {
	var idx int
	switch n := ptr.(type) {
	case int:
		idx = n
	case int64:
		idx = int(n)
	case float64:
		idx = int(n)
	case json.Number:
		i64, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("backreference index %v: %w", ptr, err)
		}
		idx = int(i64)
	default:
		return nil, fmt.Errorf("backreference index must be a number, got %T", ptr)
	}
	if idx < 0 || idx >= len(table) {
		return nil, fmt.Errorf("backreference %d out of range (table has %d objects)", idx, len(table))
	}
	obj := table[idx]
	if !deep {
		return obj, nil
	}
	return cloneValue(obj)
}

// cloneValue deep-copies a decoded value by round-tripping it through the
// plain serializer.
func cloneValue(v any) (any, error) {
	enc, err := plainEncode(v)
	if err != nil {
		return nil, err
	}
	return plainDecode(enc)
}

// EncodeMovieCompact serializes a movie with the deduplicating
// serializer, the format used for cache files.
func EncodeMovieCompact(m document.Movie) (any, error) {
	return Dedup{}.Encode(m)
}

// DecodeMovieCompact parses deduplicated movie JSON bytes back into
// document form.
func DecodeMovieCompact(data []byte) (document.Movie, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing movie JSON: %w", err)
	}
	dec, err := Dedup{}.Decode(raw, true)
	if err != nil {
		return nil, err
	}
	return toMovie(dec)
}

func checkReservedKeys(m map[string]any) error {
	for _, k := range []string{"*", "&", "_", "_type"} {
		if _, clash := m[k]; clash {
			return fmt.Errorf("map uses reserved key %q", k)
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
