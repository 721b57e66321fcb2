// Package vector derives the fixed-length vector every stored conversation
// point carries.
//
// The vector is a content fingerprint, not a semantic embedding: records whose
// first Dimension characters of canonical JSON match produce the same vector.
// It must be replaced before any similarity search is built on top of it.
package vector

import (
	"bytes"
	"encoding/json"
)

// Dimension is the length of every vector produced by Encode
const Dimension = 1536

// Encode maps a JSON-serializable record to a vector of exactly Dimension
// values. Each of the first Dimension characters of the record's canonical
// JSON becomes codepoint/255; remaining positions are zero. A record that
// cannot be serialized yields the zero vector.
func Encode(record any) []float32 {
	vec := make([]float32, Dimension)

	text, err := Canonical(record)
	if err != nil {
		return vec
	}

	// Canonical output is pure ASCII, so bytes and characters coincide.
	n := len(text)
	if n > Dimension {
		n = Dimension
	}
	for i := 0; i < n; i++ {
		vec[i] = float32(text[i]) / 255.0
	}
	return vec
}

// Canonical serializes record as JSON with object keys sorted, ", " and ": "
// separators, and every non-ASCII character escaped.
func Canonical(record any) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writeValue(&buf, generic)
	return buf.String(), nil
}
