package document

// Document is the ordered sequence of top-level blocks parsed from an input
// file. Order is semantically significant and is preserved end-to-end.
type Document struct {
	Blocks []Block
}

// Block is one top-level entry. Name may carry parenthesized positional
// arguments (e.g. "CASSCF(2,2)"). Body is one of: nil, a scalar, a []any,
// or a *Mapping; stage blocks carry a *Mapping while reserved keys such as
// "version" carry a scalar.
type Block struct {
	Name string
	Body any
}

// Append adds a block at the end of the document.
func (d *Document) Append(name string, body any) {
	d.Blocks = append(d.Blocks, Block{Name: name, Body: body})
}

// Get returns the body of the first block with the given name.
func (d *Document) Get(name string) (any, bool) {
	for _, b := range d.Blocks {
		if b.Name == name {
			return b.Body, true
		}
	}
	return nil, false
}

// Names returns the block names in document order.
func (d *Document) Names() []string {
	names := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		names[i] = b.Name
	}
	return names
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{Blocks: make([]Block, len(d.Blocks))}
	for i, b := range d.Blocks {
		out.Blocks[i] = Block{Name: b.Name, Body: CloneValue(b.Body)}
	}
	return out
}

// Equal reports structural equality: same block order, same key order, same
// value kinds and values.
func (d *Document) Equal(other *Document) bool {
	if len(d.Blocks) != len(other.Blocks) {
		return false
	}
	for i, b := range d.Blocks {
		if b.Name != other.Blocks[i].Name {
			return false
		}
		if !ValueEqual(b.Body, other.Blocks[i].Body) {
			return false
		}
	}
	return true
}
