package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/qcflow/internal/bridge"
	"github.com/vk/qcflow/internal/emit"
	"github.com/vk/qcflow/internal/template"
)

const waterWorkflow = `Mole:
  atom: H 0 0 0; H 0 0 0.74
  basis: {basis=sto-3g}
HF:
  results:
    - e_tot
    - mo_energy
`

// markerRunner plays canned stdout instead of invoking an interpreter.
type markerRunner struct {
	stdout string
	err    error
}

func (r *markerRunner) Run(_ context.Context, _ string, w io.Writer) error {
	if _, err := io.WriteString(w, r.stdout); err != nil {
		return err
	}
	return r.err
}

// runnerFunc adapts a function to bridge.Runner.
type runnerFunc func(ctx context.Context, script string, w io.Writer) error

func (f runnerFunc) Run(ctx context.Context, script string, w io.Writer) error {
	return f(ctx, script, w)
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestConfig(t *testing.T, c Config) *Config {
	t.Helper()
	config, err := NewConfig(c)
	require.NoError(t, err)
	return config
}

func TestRunDryRunEmitsScript(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "water.yaml", waterWorkflow)
	config := newTestConfig(t, Config{InputPath: path, DryRun: true})

	var out, logs bytes.Buffer
	err := New(&out, &logs, config, nil).Run(context.Background())
	require.NoError(t, err)

	script := out.String()
	require.Contains(t, script, "# Generated by qcflow.")
	require.Contains(t, script, "mole_0 = pyscf.M(")
	require.Contains(t, script, `basis="sto-3g"`, "in-template default applies")
	require.Contains(t, script, "hf_1 = mole_0.HF()")
	require.Contains(t, script, `_record("HF", "e_tot", hf_1.e_tot)`)
}

func TestDryRunNeverInvokesRunner(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "water.yaml", waterWorkflow)
	config := newTestConfig(t, Config{InputPath: path, DryRun: true})
	invoked := false
	runner := runnerFunc(func(context.Context, string, io.Writer) error {
		invoked = true
		return nil
	})

	var out, logs bytes.Buffer
	require.NoError(t, New(&out, &logs, config, runner).Run(context.Background()))
	require.False(t, invoked)
}

func TestRunOverrideBeatsDefault(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "water.yaml", waterWorkflow)
	config := newTestConfig(t, Config{
		InputPath: path,
		DryRun:    true,
		Overrides: map[string]string{"basis": "cc-pvdz"},
	})

	var out, logs bytes.Buffer
	require.NoError(t, New(&out, &logs, config, nil).Run(context.Background()))
	require.Contains(t, out.String(), `basis="cc-pvdz"`)
}

func TestRunWarnsOnUnusedOverride(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "water.yaml", waterWorkflow)
	config := newTestConfig(t, Config{
		InputPath: path,
		DryRun:    true,
		Overrides: map[string]string{"spin": "2"},
	})

	var out, logs bytes.Buffer
	require.NoError(t, New(&out, &logs, config, nil).Run(context.Background()))
	require.Contains(t, logs.String(), "spin")
}

func TestRunCompactJSONInput(t *testing.T) {
	t.Parallel()

	// A non-template document must reach the parser byte for byte; compact
	// JSON ends in braces that must not be eaten as escape syntax.
	path := writeInput(t, "water.json", `{"Mole":{"basis":"sto-3g"},"HF":{"results":["e_tot"]}}`)
	config := newTestConfig(t, Config{InputPath: path, DryRun: true})

	var out, logs bytes.Buffer
	require.NoError(t, New(&out, &logs, config, nil).Run(context.Background()))
	require.Contains(t, out.String(), `_record("HF", "e_tot", hf_1.e_tot)`)
}

func TestRunFailsOnUnresolvedPlaceholder(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "water.yaml", "Mole:\n  basis: {basis}\n")
	config := newTestConfig(t, Config{InputPath: path, DryRun: true})

	var out, logs bytes.Buffer
	err := New(&out, &logs, config, nil).Run(context.Background())
	var terr *template.Error
	require.ErrorAs(t, err, &terr)
	require.Equal(t, []string{"basis"}, terr.Keys)
}

func TestRunExecutesAndSerializesResults(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "water.yaml", waterWorkflow)
	config := newTestConfig(t, Config{InputPath: path})
	runner := &markerRunner{stdout: emit.ResultMarker + `{"block": "HF", "name": "e_tot", "value": -1.117}` + "\n" +
		emit.ResultMarker + `{"block": "HF", "name": "mo_energy", "value": [-0.578, 0.67]}` + "\n"}

	var out, logs bytes.Buffer
	require.NoError(t, New(&out, &logs, config, runner).Run(context.Background()))

	text := out.String()
	require.Contains(t, text, "e_tot: -1.117")
	require.Contains(t, text, "mo_energy:")
	require.Contains(t, text, "basis: sto-3g", "template defaults land in the result document")
}

func TestRunPartialFailureStillWritesResults(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "water.yaml", waterWorkflow)
	config := newTestConfig(t, Config{InputPath: path})
	runner := &markerRunner{
		stdout: emit.ResultMarker + `{"block": "HF", "name": "e_tot", "value": -1.117}` + "\n",
		err:    errors.New("exit status 1"),
	}

	var out, logs bytes.Buffer
	err := New(&out, &logs, config, runner).Run(context.Background())
	var execErr *bridge.ExecutionError
	require.ErrorAs(t, err, &execErr)

	text := out.String()
	require.Contains(t, text, "e_tot: -1.117")
	require.Contains(t, text, "result not captured")
}

func TestRunTotalFailureWritesNothing(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "water.yaml", waterWorkflow)
	config := newTestConfig(t, Config{InputPath: path})
	runner := &markerRunner{err: errors.New("python3 not found")}

	var out, logs bytes.Buffer
	err := New(&out, &logs, config, runner).Run(context.Background())
	require.Error(t, err)
	require.Empty(t, out.String())
}

func TestRunInputFormatOverridesExtension(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "water.workflow", "Mole:\n  basis: sto-3g\nHF:\n")
	config := newTestConfig(t, Config{InputPath: path, InputFormat: "yaml", DryRun: true})

	var out, logs bytes.Buffer
	require.NoError(t, New(&out, &logs, config, nil).Run(context.Background()))
	require.Contains(t, out.String(), "hf_1 = mole_0.HF()")
}

func TestRunJSONResultOutput(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "water.yaml", waterWorkflow)
	config := newTestConfig(t, Config{InputPath: path, OutputFormat: "json"})
	runner := &markerRunner{stdout: emit.ResultMarker + `{"block": "HF", "name": "e_tot", "value": -1.117}` + "\n" +
		emit.ResultMarker + `{"block": "HF", "name": "mo_energy", "value": []}` + "\n"}

	var out, logs bytes.Buffer
	require.NoError(t, New(&out, &logs, config, runner).Run(context.Background()))
	require.Contains(t, out.String(), `"e_tot": -1.117`)
}
