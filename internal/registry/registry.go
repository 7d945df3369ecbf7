package registry

import "strings"

// Category classifies a stage kind by how it participates in the pipeline's
// reference chain.
type Category int

const (
	// CategoryEnvironment builds the chemical system description. At most
	// one per document, and it must lead the pipeline.
	CategoryEnvironment Category = iota
	// CategoryMethod applies a computational method to the current
	// reference and produces a new one.
	CategoryMethod
	// CategoryModifier wraps the current reference (e.g. a solvent model),
	// replacing it.
	CategoryModifier
	// CategoryProperty derives a value (e.g. gradients) from the current
	// reference without replacing it.
	CategoryProperty
)

// String implements fmt.Stringer.
func (c Category) String() string {
	switch c {
	case CategoryEnvironment:
		return "environment"
	case CategoryMethod:
		return "method"
	case CategoryModifier:
		return "modifier"
	case CategoryProperty:
		return "property"
	}
	return "unknown"
}

// Entry is one resolved vocabulary entry: the canonical kind spelling and
// its category.
type Entry struct {
	Kind     string
	Category Category
}

// Registry is the immutable stage-kind vocabulary. Construct it once with
// New and share it by reference; no method mutates it.
type Registry struct {
	kinds    map[string]Entry
	wrappers map[string]bool
}

// Lookup resolves a block name (without any parenthesized argument suffix)
// case-insensitively. The boolean is false for unknown names, which callers
// treat as passthrough method stages.
func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.kinds[strings.ToLower(name)]
	return e, ok
}

// IsWrapper reports whether an option key inside a method block binds as a
// post-construction wrapper call.
func (r *Registry) IsWrapper(key string) bool {
	return r.wrappers[strings.ToLower(key)]
}

// Wrappers returns the declared wrapper option keys, for diagnostics.
func (r *Registry) Wrappers() []string {
	out := make([]string, 0, len(r.wrappers))
	for k := range r.wrappers {
		out = append(out, k)
	}
	return out
}
