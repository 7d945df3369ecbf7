package emit

import (
	"fmt"
	"strings"

	"github.com/vk/qcflow/internal/document"
	"github.com/vk/qcflow/internal/pipeline"
	"github.com/vk/qcflow/internal/registry"
)

// ResultMarker prefixes every captured-result line the emitted script
// prints; the execution bridge scans stdout for it.
const ResultMarker = "##qcflow## "

// Script renders the pipeline as an executable Python script.
func Script(p *pipeline.Pipeline) (string, error) {
	var b strings.Builder
	writeHeader(&b, p)

	for _, st := range p.Stages {
		b.WriteString("\n")
		if err := writeStage(&b, p, st); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func writeHeader(b *strings.Builder, p *pipeline.Pipeline) {
	b.WriteString("# Generated by qcflow. Do not edit.\n")
	b.WriteString("\nimport json\nimport numpy\nimport pyscf\n")
	for _, imp := range p.Imports {
		b.WriteString("import " + imp + "\n")
	}
	b.WriteString(`
results = {}


def _record(block, name, value):
    if isinstance(value, (numpy.ndarray, numpy.generic)):
        value = value.tolist()
    results.setdefault(block, {})[name] = value
    line = json.dumps({"block": block, "name": name, "value": value}, default=repr)
    print(` + pyString(ResultMarker) + ` + line, flush=True)

`)
}

// Ident returns the deterministic identifier a stage binds to in the
// emitted script: the sanitized lowercase kind suffixed with the stage
// index.
func Ident(index int, kind string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(kind) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		name = "s" + name
	}
	return fmt.Sprintf("%s_%d", name, index)
}

func writeStage(b *strings.Builder, p *pipeline.Pipeline, st *pipeline.Stage) error {
	ident := Ident(st.Index, st.Kind)

	switch {
	case st.Category == registry.CategoryEnvironment:
		if err := writeEnvironment(b, ident, st); err != nil {
			return err
		}
	default:
		pred := p.Stages[st.Predecessor]
		if err := writeCall(b, ident, Ident(pred.Index, pred.Kind), st); err != nil {
			return err
		}
	}

	for _, req := range st.Results {
		if err := writeResult(b, ident, st, req); err != nil {
			return err
		}
	}
	return nil
}

// writeEnvironment emits the system-construction call, with every option
// as a call keyword, matching how the simulation library builds molecules
// and crystal cells.
func writeEnvironment(b *strings.Builder, ident string, st *pipeline.Stage) error {
	b.WriteString(ident + " = pyscf.M(\n")
	for _, a := range st.Args {
		lit, err := pyLiteral(a)
		if err != nil {
			return stageEmitError(st, err)
		}
		b.WriteString("    " + lit + ",\n")
	}
	for _, k := range st.Options.Keys() {
		v, _ := st.Options.Get(k)
		lit, err := pyLiteral(v)
		if err != nil {
			return stageEmitError(st, err)
		}
		b.WriteString("    " + k + "=" + lit + ",\n")
	}
	b.WriteString(")\n")
	return nil
}

// writeCall emits construction from the predecessor reference, option
// assignments, wrapper calls in declared order, and the final run().
func writeCall(b *strings.Builder, ident, pred string, st *pipeline.Stage) error {
	args, err := pyArgs(st.Args, nil)
	if err != nil {
		return stageEmitError(st, err)
	}

	if st.Kind == "geomopt" {
		// Geometry optimization hangs off the gradients object rather than
		// being a method of the reference itself.
		b.WriteString(ident + " = " + pred + ".Gradients().optimizer()\n")
	} else {
		b.WriteString(ident + " = " + pred + "." + st.Kind + "(" + args + ")\n")
	}

	if err := writeAssignments(b, ident, st); err != nil {
		return err
	}

	for _, w := range st.Wrappers {
		wargs, err := pyArgs(w.Args, w.Options)
		if err != nil {
			return stageEmitError(st, err)
		}
		b.WriteString(ident + " = " + ident + "." + w.Name + "(" + wargs + ")\n")
	}

	b.WriteString(ident + " = " + ident + ".run()\n")
	return nil
}

// writeAssignments emits one attribute assignment per keyword option, with
// nested mappings flattened into dotted attribute paths.
func writeAssignments(b *strings.Builder, prefix string, st *pipeline.Stage) error {
	var write func(prefix string, m *document.Mapping) error
	write = func(prefix string, m *document.Mapping) error {
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			if sub, ok := v.(*document.Mapping); ok {
				if err := write(prefix+"."+k, sub); err != nil {
					return err
				}
				continue
			}
			lit, err := pyLiteral(v)
			if err != nil {
				return stageEmitError(st, err)
			}
			b.WriteString(prefix + "." + k + " = " + lit + "\n")
		}
		return nil
	}
	return write(prefix, st.Options)
}

func writeResult(b *strings.Builder, ident string, st *pipeline.Stage, req pipeline.ResultRequest) error {
	expr := ident + "." + req.Name
	if req.Call {
		args, err := pyArgs(req.Args, req.Kwargs)
		if err != nil {
			return stageEmitError(st, err)
		}
		expr += "(" + args + ")"
	}
	b.WriteString("_record(" + pyString(st.Block) + ", " + pyString(req.Name) + ", " + expr + ")\n")
	return nil
}

// Error reports a stage value the emitter cannot render.
type Error struct {
	Stage int
	Block string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Stage, e.Block, e.Err)
}

// Unwrap exposes the underlying rendering error.
func (e *Error) Unwrap() error { return e.Err }

func stageEmitError(st *pipeline.Stage, err error) error {
	return &Error{Stage: st.Index, Block: st.Block, Err: err}
}
