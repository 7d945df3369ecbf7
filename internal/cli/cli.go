package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/qcflow/internal/app"
)

// ExitError is an error with a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// keyValues collects repeatable -k key=val flags.
type keyValues map[string]string

// String implements flag.Value.
func (k keyValues) String() string {
	parts := make([]string, 0, len(k))
	for key, val := range k {
		parts = append(parts, key+"="+val)
	}
	return strings.Join(parts, ",")
}

// Set implements flag.Value.
func (k keyValues) Set(s string) error {
	key, val, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	k[key] = val
	return nil
}

// Parse processes command-line arguments into an app.Config. The boolean
// is true when the program should exit cleanly without running (help, or
// no input given).
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("qcflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
qcflow - compile a declarative quantum-chemistry workflow into a PySCF script.

Usage:
  qcflow [options] INPUT

Arguments:
  INPUT
    Path to the input document (.yaml, .json, .toml, or .hcl). The document
    may be a template with {key} placeholders resolved via -k.

Options:
`)
		flagSet.PrintDefaults()
	}

	overrides := keyValues{}
	outputFlag := flagSet.String("output", "yaml", "Output format for captured results: yaml, json, toml, or hcl.")
	oFlag := flagSet.String("o", "", "Output format (shorthand).")
	flagSet.Var(overrides, "key", "Template override as key=value. Repeatable.")
	flagSet.Var(overrides, "k", "Template override as key=value (shorthand). Repeatable.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Only generate the script; do not run it.")
	fromFlag := flagSet.String("from", "", "Input format, overriding extension detection.")
	pythonFlag := flagSet.String("python", "python3", "Python interpreter used for execution.")
	chainFlag := flagSet.Bool("chain-properties", false, "Let property stages (e.g. geomopt) become the reference for later stages.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level: 'debug', 'info', 'warn', or 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: ExitUsage, Message: "exactly one input document expected"}
	}

	outFormat := *outputFlag
	if *oFlag != "" {
		outFormat = *oFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		InputPath:       flagSet.Arg(0),
		InputFormat:     *fromFlag,
		OutputFormat:    outFormat,
		Overrides:       overrides,
		DryRun:          *dryRunFlag,
		Python:          *pythonFlag,
		ChainProperties: *chainFlag,
		LogLevel:        logLevel,
		LogFormat:       logFormat,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return config, false, nil
}
