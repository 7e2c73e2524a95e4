package codec

import (
	"fmt"
	"io"

	"rtshell/internal/profile"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles rtsProfile documents in YAML
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse reads a profile from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*profile.Profile, error) {
	var doc document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc.toProfile()
}

// Export writes a profile as YAML
func (c *YAMLCodec) Export(p *profile.Profile, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(fromProfile(p)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
