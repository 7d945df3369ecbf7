package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/qcflow/internal/document"
)

// Format identifies one of the supported interchange formats.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
	TOML Format = "toml"
	HCL  Format = "hcl"
)

// ParseError reports malformed structural input. Line and Column are zero
// when the underlying grammar does not report a position.
type ParseError struct {
	Format Format
	Line   int
	Column int
	Msg    string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Format, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Format, e.Msg)
}

// Lookup resolves a format name as given on the command line.
func Lookup(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	case "toml":
		return TOML, nil
	case "hcl":
		return HCL, nil
	}
	return "", fmt.Errorf("unknown format %q (supported: yaml, json, toml, hcl)", name)
}

// Detect picks a format from a file name's extension.
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	case ".toml":
		return TOML, nil
	case ".hcl":
		return HCL, nil
	}
	return "", fmt.Errorf("cannot detect input format from extension %q", ext)
}

// Parse decodes text in the given format into a document.
func Parse(text string, f Format) (*document.Document, error) {
	switch f {
	case YAML:
		return parseYAML(text)
	case JSON:
		return parseJSON(text)
	case TOML:
		return parseTOML(text)
	case HCL:
		return parseHCL(text)
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// Serialize encodes a document as text in the given format.
func Serialize(doc *document.Document, f Format) (string, error) {
	switch f {
	case YAML:
		return serializeYAML(doc)
	case JSON:
		return serializeJSON(doc)
	case TOML:
		return serializeTOML(doc)
	case HCL:
		return serializeHCL(doc)
	}
	return "", fmt.Errorf("unknown format %q", f)
}
