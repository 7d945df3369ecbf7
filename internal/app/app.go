package app

import (
	"io"
	"log/slog"

	"github.com/vk/qcflow/internal/bridge"
	"github.com/vk/qcflow/internal/registry"
)

// App encapsulates one compiler instance: its logger, its immutable
// stage-kind registry, and the runner used for delegated execution.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
	runner   bridge.Runner
}

// New constructs an App. Compiler output (scripts, serialized results)
// goes to outW; logs go to logW. A nil runner selects the Python
// subprocess runner; tests inject fakes.
func New(outW, logW io.Writer, config *Config, runner bridge.Runner) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, logW)
	logger.Debug("Logger configured.")

	if runner == nil {
		runner = &bridge.PythonRunner{Python: config.Python}
	}

	// The registry is built once here and treated as immutable for the
	// life of the process.
	reg := registry.New()
	logger.Debug("Stage-kind registry built.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   config,
		runner:   runner,
	}
}

// Registry returns the app's registry, primarily for tests.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
