package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for content hashing.
// This is the ONLY serialization that should be used to compute
// deduplication keys and cache content hashes.
//
// Differences from standard json.Marshal:
//  1. Object keys sorted bytewise
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Numbers must be integral (fractional values return an error)
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case string:
		return marshalCanonicalString(buf, val)
	case *string:
		if val == nil {
			buf.WriteString("null")
			return nil
		}
		return marshalCanonicalString(buf, *val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case int:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case int64:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case float64:
		// JSON decoding yields float64 for all numbers; only integral
		// values have a canonical form.
		if val != math.Trunc(val) || math.IsInf(val, 0) || math.IsNaN(val) {
			return fmt.Errorf("non-integral number has no canonical form: %v", val)
		}
		fmt.Fprintf(buf, "%d", int64(val))
		return nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return fmt.Errorf("non-integral number has no canonical form: %v", val)
		}
		fmt.Fprintf(buf, "%d", n)
		return nil
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case []string:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonicalString(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := marshalCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString writes a canonical JSON string with NFC
// normalization and HTML escaping disabled. Proof terms routinely contain
// < > & and non-ASCII connectives, so both properties matter: the same
// term must always hash to the same bytes.
func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}

	// json.Encoder adds a trailing newline, drop it.
	out := tmp.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	buf.Write(out)
	return nil
}
