package cli

import (
	"errors"

	"github.com/vk/qcflow/internal/bridge"
	"github.com/vk/qcflow/internal/emit"
	"github.com/vk/qcflow/internal/format"
	"github.com/vk/qcflow/internal/pipeline"
	"github.com/vk/qcflow/internal/template"
)

// Exit codes. Each failure class of the compiler maps to its own code so
// wrapping tools can tell them apart.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2
	ExitTemplate  = 3
	ExitParse     = 4
	ExitBind      = 5
	ExitExecution = 6
)

// ExitCodeFor maps an error from a compilation run onto an exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var (
		templateErr *template.Error
		parseErr    *format.ParseError
		schemaErr   *pipeline.SchemaError
		bindingErr  *pipeline.BindingError
		emitErr     *emit.Error
		execErr     *bridge.ExecutionError
	)
	switch {
	case errors.As(err, &templateErr):
		return ExitTemplate
	case errors.As(err, &parseErr), errors.As(err, &schemaErr):
		return ExitParse
	case errors.As(err, &bindingErr), errors.As(err, &emitErr):
		return ExitBind
	case errors.As(err, &execErr):
		return ExitExecution
	}
	return ExitFailure
}
