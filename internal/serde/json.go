package serde

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON renders an encoded tree as JSON bytes with HTML escaping
// disabled. Proof terms routinely contain < > &, and escaping them makes
// movie files unreadable and breaks diffing against other tools' output.
// The result ends with a newline.
func MarshalJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
