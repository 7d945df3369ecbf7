package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/qcflow/internal/bridge"
	"github.com/vk/qcflow/internal/ctxlog"
	"github.com/vk/qcflow/internal/emit"
	"github.com/vk/qcflow/internal/format"
	"github.com/vk/qcflow/internal/pipeline"
	"github.com/vk/qcflow/internal/template"
)

// Run performs one full compilation: read, substitute, parse, resolve,
// emit, and, unless dry-run is set, execute and serialize the captured
// results.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	raw, err := os.ReadFile(a.config.InputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	text, unused, err := template.Expand(string(raw), a.config.Overrides)
	if err != nil {
		return err
	}
	for _, key := range unused {
		a.logger.Warn("Override key matches no placeholder in the input.", "key", key)
	}
	a.logger.Debug("Template substitution complete.", "placeholders", len(template.Placeholders(string(raw))))

	f, err := a.inputFormat()
	if err != nil {
		return err
	}
	doc, err := format.Parse(text, f)
	if err != nil {
		return err
	}
	a.logger.Debug("Document parsed.", "format", f, "blocks", len(doc.Blocks))

	var opts []pipeline.Option
	if a.config.ChainProperties {
		opts = append(opts, pipeline.WithChainedProperties())
	}
	p, err := pipeline.Resolve(doc, a.registry, opts...)
	if err != nil {
		return err
	}
	a.logger.Debug("Pipeline resolved.", "stages", len(p.Stages))

	script, err := emit.Script(p)
	if err != nil {
		return err
	}

	if a.config.DryRun {
		a.logger.Debug("Dry run: emitting script without execution.")
		_, err := fmt.Fprint(a.outW, script)
		return err
	}

	res, runErr := bridge.New(a.runner).Run(ctx, script)
	if runErr == nil || (res != nil && len(res.Values) > 0) {
		outDoc := bridge.ResultDocument(doc, p, res)
		outFormat, err := format.Lookup(a.config.OutputFormat)
		if err != nil {
			return err
		}
		out, err := format.Serialize(outDoc, outFormat)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprint(a.outW, out); err != nil {
			return err
		}
	}
	return runErr
}

func (a *App) inputFormat() (format.Format, error) {
	if a.config.InputFormat != "" {
		return format.Lookup(a.config.InputFormat)
	}
	return format.Detect(a.config.InputPath)
}
