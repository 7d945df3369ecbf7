package app

import (
	"fmt"

	"github.com/vk/qcflow/internal/format"
)

// Config holds everything one compilation run needs.
type Config struct {
	// InputPath names the input document, which may itself be a template.
	InputPath string
	// InputFormat overrides extension-based detection when set.
	InputFormat string
	// OutputFormat selects the serialization of captured results.
	OutputFormat string
	// Overrides are the -k key=val template substitutions.
	Overrides map[string]string
	// DryRun emits the script without handing it to the runtime.
	DryRun bool
	// Python is the external runtime binary.
	Python string
	// ChainProperties makes property stages replace the current reference.
	ChainProperties bool

	LogLevel  string
	LogFormat string
}

// NewConfig validates a config and fills defaults.
func NewConfig(c Config) (*Config, error) {
	if c.InputPath == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if c.OutputFormat == "" {
		c.OutputFormat = "yaml"
	}
	if _, err := format.Lookup(c.OutputFormat); err != nil {
		return nil, err
	}
	if c.InputFormat != "" {
		if _, err := format.Lookup(c.InputFormat); err != nil {
			return nil, err
		}
	}
	if c.Python == "" {
		c.Python = "python3"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	return &c, nil
}
