package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"rtshell/internal/profile"
)

// JSONCodec handles rtsProfile documents in JSON
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads a profile from JSON
func (c *JSONCodec) Parse(r io.Reader) (*profile.Profile, error) {
	var doc document
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return doc.toProfile()
}

// Export writes a profile as JSON
func (c *JSONCodec) Export(p *profile.Profile, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(fromProfile(p)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
