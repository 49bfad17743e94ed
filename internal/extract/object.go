package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one member of a JSON object.
type Field struct {
	Key   string
	Value json.RawMessage
}

// OrderedFields returns the members of a JSON object in document order.
// Platforms key their state by generated route names, and the first
// matching key has to be chosen the same way on every run.
func OrderedFields(raw []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", key, err)
		}
		fields = append(fields, Field{Key: key, Value: value})
	}

	return fields, nil
}

// FirstField returns the first member whose key satisfies match.
func FirstField(raw []byte, match func(key string) bool) (Field, bool, error) {
	fields, err := OrderedFields(raw)
	if err != nil {
		return Field{}, false, err
	}
	for _, f := range fields {
		if match(f.Key) {
			return f, true, nil
		}
	}
	return Field{}, false, nil
}

// IsNull reports whether raw is absent or the JSON null literal.
func IsNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
