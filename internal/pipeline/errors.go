package pipeline

import "fmt"

// SchemaError reports an ordering or cardinality violation, such as a
// second environment block or a method with nothing to attach to.
type SchemaError struct {
	Block string
	Index int
	Msg   string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("block %q (stage %d): %s", e.Block, e.Index, e.Msg)
}

// BindingError reports a malformed results entry or modifier shape inside
// one block.
type BindingError struct {
	Block string
	Key   string
	Msg   string
}

// Error implements the error interface.
func (e *BindingError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("block %q, key %q: %s", e.Block, e.Key, e.Msg)
	}
	return fmt.Sprintf("block %q: %s", e.Block, e.Msg)
}
