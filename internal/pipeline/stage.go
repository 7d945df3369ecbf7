package pipeline

import (
	"github.com/vk/qcflow/internal/document"
	"github.com/vk/qcflow/internal/registry"
)

// Pipeline is the fully resolved, dependency-ordered form of a document.
type Pipeline struct {
	// Version is the value of the reserved "version" block, if present.
	Version string
	// Imports lists extra runtime modules from the reserved "import" block.
	Imports []string
	Stages  []*Stage
}

// Stage is a block after classification, binding, and dependency wiring.
type Stage struct {
	// Block is the original block name as written, e.g. "CASSCF(2,2)".
	Block string
	// Kind is the resolved kind, e.g. "CASSCF". For passthrough stages it
	// is the literal name.
	Kind string
	// Known is false for passthrough stages absent from the registry.
	Known    bool
	Category registry.Category
	// Index is the stage's position in the pipeline.
	Index int
	// Predecessor is the index of the stage providing this stage's input
	// reference, or -1 for an environment stage.
	Predecessor int

	// Args holds positional constructor arguments parsed from an
	// IDENT(args) block name.
	Args []any
	// Options holds the remaining keyword options in declaration order.
	Options *document.Mapping
	// Wrappers holds post-construction calls in declaration order.
	Wrappers []Wrapper
	// Results holds the values to extract from this stage's object.
	Results []ResultRequest
}

// Wrapper is one ordered post-construction call, e.g. density_fit with an
// auxbasis keyword.
type Wrapper struct {
	Name string
	// Args holds positional arguments (a scalar wrapper value binds as one
	// positional argument).
	Args []any
	// Options holds keyword arguments in declaration order.
	Options *document.Mapping
}

// ResultRequest names a value to capture from a stage: a bare attribute
// read, or a call when Call is set.
type ResultRequest struct {
	Name string
	Call bool
	// Args holds positional call arguments (sequence-shaped request value).
	Args []any
	// Kwargs holds keyword call arguments (mapping-shaped request value).
	Kwargs *document.Mapping
}

// UpdatesReference reports whether this stage becomes the current reference
// for the stages after it.
func (s *Stage) UpdatesReference(chainProperties bool) bool {
	if s.Category == registry.CategoryProperty {
		return chainProperties
	}
	return true
}
