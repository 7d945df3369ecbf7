package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/qcflow/internal/document"
	"github.com/vk/qcflow/internal/registry"
)

// Reserved document keys that never become stages.
const (
	versionKey = "version"
	importKey  = "import"
)

// Option configures resolution.
type Option func(*resolveOptions)

type resolveOptions struct {
	chainProperties bool
}

// WithChainedProperties makes property stages replace the current reference
// for the stages after them, so e.g. a geometry optimization can feed a
// follow-up calculation. The default is the leaf-read behavior: properties
// only read the reference.
func WithChainedProperties() Option {
	return func(o *resolveOptions) { o.chainProperties = true }
}

// Resolve classifies a document's blocks into a dependency-ordered pipeline
// in a single pass. The registry is read-only shared state; Resolve never
// mutates it.
func Resolve(doc *document.Document, reg *registry.Registry, opts ...Option) (*Pipeline, error) {
	var ro resolveOptions
	for _, opt := range opts {
		opt(&ro)
	}

	p := &Pipeline{}
	current := -1

	for _, blk := range doc.Blocks {
		switch blk.Name {
		case versionKey:
			p.Version = scalarString(blk.Body)
			continue
		case importKey:
			imports, err := importList(blk.Body)
			if err != nil {
				return nil, err
			}
			p.Imports = append(p.Imports, imports...)
			continue
		}

		idx := len(p.Stages)
		st, err := newStage(blk.Name, idx, reg)
		if err != nil {
			return nil, err
		}

		switch {
		case st.Category == registry.CategoryEnvironment && idx != 0:
			return nil, &SchemaError{Block: blk.Name, Index: idx, Msg: "environment block must be the first block in the document"}
		case st.Category == registry.CategoryEnvironment:
			st.Predecessor = -1
		case current < 0:
			return nil, &SchemaError{Block: blk.Name, Index: idx, Msg: "no preceding stage establishes a reference for this block"}
		default:
			st.Predecessor = current
		}

		body, err := stageBody(blk)
		if err != nil {
			return nil, &SchemaError{Block: blk.Name, Index: idx, Msg: err.Error()}
		}
		if err := bindStage(st, body, reg); err != nil {
			return nil, err
		}

		if st.UpdatesReference(ro.chainProperties) {
			current = idx
		}
		p.Stages = append(p.Stages, st)
	}
	return p, nil
}

var blockNameRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*)\s*(?:\((.*)\))?$`)

// newStage splits an optional IDENT(args) suffix off the block name and
// classifies the kind against the registry. Unknown kinds pass through as
// method stages carrying their literal name.
func newStage(name string, idx int, reg *registry.Registry) (*Stage, error) {
	m := blockNameRe.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return nil, &SchemaError{Block: name, Index: idx, Msg: "malformed block name"}
	}
	kind := m[1]
	if strings.Contains(kind, ".") {
		// A dotted name asks for a module-level statement, which has no
		// place in the reference chain; nested option mappings cover the
		// dotted-attribute cases.
		return nil, &SchemaError{Block: name, Index: idx, Msg: "dotted block names are not supported"}
	}
	args, err := parseArgs(m[2])
	if err != nil {
		return nil, &SchemaError{Block: name, Index: idx, Msg: err.Error()}
	}

	st := &Stage{
		Block:       name,
		Kind:        kind,
		Index:       idx,
		Predecessor: -1,
		Args:        args,
		Options:     document.NewMapping(),
		Category:    registry.CategoryMethod,
	}
	if entry, ok := reg.Lookup(kind); ok {
		st.Kind = entry.Kind
		st.Category = entry.Category
		st.Known = true
	}
	return st, nil
}

// parseArgs parses the comma-separated positional arguments of a
// parametrized block name such as CASSCF(2,2). Commas inside quotes do not
// split.
func parseArgs(raw string) ([]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts, err := splitArgs(raw)
	if err != nil {
		return nil, err
	}
	args := make([]any, 0, len(parts))
	for _, part := range parts {
		s := strings.TrimSpace(part)
		if s == "" {
			return nil, fmt.Errorf("empty positional argument in %q", raw)
		}
		args = append(args, parseScalar(s))
	}
	return args, nil
}

func splitArgs(raw string) ([]string, error) {
	var parts []string
	var b strings.Builder
	var quote rune
	for _, r := range raw {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			b.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			b.WriteRune(r)
		case r == ',':
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", raw)
	}
	return append(parts, b.String()), nil
}

// parseScalar interprets a positional argument: integer, float, quoted
// string, or bare word (kept as a string).
func parseScalar(s string) any {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func stageBody(blk document.Block) (*document.Mapping, error) {
	switch body := blk.Body.(type) {
	case nil:
		return nil, nil
	case *document.Mapping:
		return body, nil
	default:
		return nil, fmt.Errorf("block body must be a mapping, got %T", blk.Body)
	}
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func importList(v any) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			s, ok := e.(string)
			if !ok {
				return nil, &SchemaError{Block: importKey, Msg: fmt.Sprintf("import entries must be strings, got %T", e)}
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return nil, nil
	}
	return nil, &SchemaError{Block: importKey, Msg: fmt.Sprintf("import must be a string or a list of strings, got %T", v)}
}
