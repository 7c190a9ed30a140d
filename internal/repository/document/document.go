// Package document converts stored JSON documents to and from the generic
// maps used by the domain layer.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode marshals doc, treating nil as an empty object.
func Encode(doc map[string]any) (string, error) {
	if doc == nil {
		return "{}", nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

// Decode unmarshals a stored document. Numbers are kept as json.Number so
// roll and registration numbers round-trip without float rounding.
func Decode(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	doc := map[string]any{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
