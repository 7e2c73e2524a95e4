// Package codec reads and writes system profile documents.
package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"rtshell/internal/profile"
)

// Importer parses a system profile document
type Importer interface {
	Parse(r io.Reader) (*profile.Profile, error)
	Format() string
}

// Exporter writes a system profile in some format
type Exporter interface {
	Export(p *profile.Profile, w io.Writer) error
	Format() string
}

// ImporterFor returns the importer for a format name, or for the extension
// of a file name when format is empty. YAML is the default.
func ImporterFor(format, filename string) (Importer, error) {
	if format == "" {
		format = formatFromName(filename)
	}
	switch format {
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "json":
		return NewJSONCodec(), nil
	}
	return nil, fmt.Errorf("unsupported profile format %q", format)
}

// ExporterFor returns the exporter for a format name
func ExporterFor(format string) (Exporter, error) {
	switch format {
	case "", "yaml", "yml":
		return NewYAMLCodec(), nil
	case "json":
		return NewJSONCodec(), nil
	case "dot":
		return NewDOTExporter(), nil
	}
	return nil, fmt.Errorf("unsupported profile format %q", format)
}

func formatFromName(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "json"
	}
	return "yaml"
}
