package bridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/vk/qcflow/internal/ctxlog"
)

// PythonRunner executes scripts with a Python interpreter as a subprocess.
type PythonRunner struct {
	// Python is the interpreter binary, e.g. "python3".
	Python string
}

// Run implements Runner. The script goes to a temporary file so the
// interpreter reports useful tracebacks; the file is removed afterwards.
func (r *PythonRunner) Run(ctx context.Context, script string, w io.Writer) error {
	logger := ctxlog.FromContext(ctx)

	f, err := os.CreateTemp("", "qcflow-*.py")
	if err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		return fmt.Errorf("write script: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	logger.Debug("Script written.", "path", path, "python", r.Python)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Python, path)
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("runtime aborted: %w", context.Cause(ctx))
		}
		return fmt.Errorf("runtime failed: %w: %s", err, tail(stderr.String(), 2048))
	}
	return nil
}

// tail returns at most n trailing bytes of s; tracebacks end with the
// interesting part.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
