package bridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vk/qcflow/internal/ctxlog"
	"github.com/vk/qcflow/internal/document"
	"github.com/vk/qcflow/internal/emit"
	"github.com/vk/qcflow/internal/format"
)

// Runner executes a script in the external runtime, streaming its standard
// output into w as it is produced. Implementations must honor ctx.
type Runner interface {
	Run(ctx context.Context, script string, w io.Writer) error
}

// ExecutionError reports a failed or aborted run. Captured results up to
// the failure are preserved on the Result returned next to this error.
type ExecutionError struct {
	RunID     string
	Cancelled bool
	Err       error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Cancelled {
		return fmt.Sprintf("run %s cancelled: %v", e.RunID, e.Err)
	}
	return fmt.Sprintf("run %s failed: %v", e.RunID, e.Err)
}

// Unwrap exposes the underlying runtime error.
func (e *ExecutionError) Unwrap() error { return e.Err }

// Captured is one result value reported by the running script.
type Captured struct {
	Block string
	Name  string
	Value any
}

// Result collects everything a run produced.
type Result struct {
	RunID     string
	Stdout    string
	Values    []Captured
	Cancelled bool
}

// Lookup returns the captured value for a block/name pair.
func (r *Result) Lookup(block, name string) (any, bool) {
	for _, c := range r.Values {
		if c.Block == block && c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Bridge drives a Runner and scans its output for result lines.
type Bridge struct {
	runner Runner
}

// New returns a bridge over the given runner.
func New(runner Runner) *Bridge {
	return &Bridge{runner: runner}
}

// Run executes the script synchronously, blocking until completion or
// until ctx is cancelled. On failure the returned Result still carries
// every value captured before the failure.
func (b *Bridge) Run(ctx context.Context, script string) (*Result, error) {
	runID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("runID", runID)
	logger.Debug("Handing script to the external runtime.")

	w := &resultWriter{logger: logger}
	err := b.runner.Run(ctx, script, w)

	res := &Result{
		RunID:     runID,
		Stdout:    w.text(),
		Values:    w.captured(),
		Cancelled: ctx.Err() != nil,
	}
	if err != nil {
		logger.Error("Run did not complete.", "error", err, "captured", len(res.Values))
		return res, &ExecutionError{RunID: runID, Cancelled: res.Cancelled, Err: err}
	}
	logger.Debug("Run completed.", "captured", len(res.Values))
	return res, nil
}

// resultWriter tees the runtime's stdout while extracting result lines as
// they stream in, so partial captures survive cancellation.
type resultWriter struct {
	logger *slog.Logger

	mu      sync.Mutex
	all     bytes.Buffer
	partial bytes.Buffer
	values  []Captured
}

// Write implements io.Writer.
func (w *resultWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.all.Write(p)
	w.partial.Write(p)
	for {
		line, err := w.partial.ReadString('\n')
		if err != nil {
			// Keep the incomplete tail for the next write.
			w.partial.Reset()
			w.partial.WriteString(line)
			break
		}
		w.scanLine(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

func (w *resultWriter) scanLine(line string) {
	payload, ok := strings.CutPrefix(line, emit.ResultMarker)
	if !ok {
		return
	}
	v, err := format.DecodeJSONValue(payload)
	if err != nil {
		w.logger.Warn("Discarding malformed result line.", "error", err)
		return
	}
	m, ok := v.(*document.Mapping)
	if !ok {
		w.logger.Warn("Discarding result line with non-object payload.")
		return
	}
	block, _ := m.Get("block")
	name, _ := m.Get("name")
	value, _ := m.Get("value")
	blockStr, bok := block.(string)
	nameStr, nok := name.(string)
	if !bok || !nok {
		w.logger.Warn("Discarding result line without block/name fields.")
		return
	}
	w.values = append(w.values, Captured{Block: blockStr, Name: nameStr, Value: value})
}

func (w *resultWriter) text() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.all.String()
}

func (w *resultWriter) captured() []Captured {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Captured, len(w.values))
	copy(out, w.values)
	return out
}
