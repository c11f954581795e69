package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// ErrParse is wrapped by every decoding failure.
var ErrParse = errors.New("spec parse failed")

// Parse decodes a single JSON spec object.
func Parse(data []byte) (*GraphSpec, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	s := New()
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after spec object", ErrParse)
	}
	return s, nil
}

// ParseYAML converts a YAML document to JSON and decodes it with Parse.
func ParseYAML(data []byte) (*GraphSpec, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return Parse(js)
}

// ParseAny decodes JSON when the document starts with '{', YAML otherwise.
func ParseAny(data []byte) (*GraphSpec, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return Parse(trimmed)
	}
	return ParseYAML(data)
}

// Marshal encodes the spec as compact JSON. Struct fields encode in
// declaration order and map keys sorted, so equal specs are byte-equal.
func Marshal(s *GraphSpec) ([]byte, error) {
	return json.Marshal(s)
}
