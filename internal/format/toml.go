package format

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml"

	"github.com/vk/qcflow/internal/document"
)

var tomlPosRe = regexp.MustCompile(`\((\d+), (\d+)\)`)

func tomlParseError(err error) error {
	pe := &ParseError{Format: TOML, Msg: err.Error()}
	if m := tomlPosRe.FindStringSubmatch(err.Error()); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
		pe.Column, _ = strconv.Atoi(m[2])
	}
	return pe
}

func parseTOML(text string) (*document.Document, error) {
	tree, err := toml.Load(text)
	if err != nil {
		return nil, tomlParseError(err)
	}

	doc := &document.Document{}
	for _, key := range orderedTreeKeys(tree) {
		v, err := tomlValue(tree.GetPath([]string{key}))
		if err != nil {
			return nil, err
		}
		doc.Append(key, v)
	}
	return doc, nil
}

// orderedTreeKeys recovers declaration order from the parser's per-key
// source positions; Tree.Keys alone comes back in map order.
func orderedTreeKeys(tree *toml.Tree) []string {
	keys := tree.Keys()
	sort.Slice(keys, func(i, j int) bool {
		pi := tree.GetPositionPath([]string{keys[i]})
		pj := tree.GetPositionPath([]string{keys[j]})
		if pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		return pi.Col < pj.Col
	})
	return keys
}

func tomlValue(v any) (any, error) {
	switch val := v.(type) {
	case *toml.Tree:
		m := document.NewMapping()
		for _, k := range orderedTreeKeys(val) {
			e, err := tomlValue(val.GetPath([]string{k}))
			if err != nil {
				return nil, err
			}
			m.Set(k, e)
		}
		return m, nil
	case []any:
		out := make([]any, 0, len(val))
		for _, e := range val {
			c, err := tomlValue(e)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	case int64, float64, bool, string:
		return val, nil
	case int:
		return int64(val), nil
	}
	return nil, &ParseError{Format: TOML, Msg: fmt.Sprintf("unsupported value type %T", v)}
}

// serializeTOML writes the document by hand: no TOML encoder preserves the
// insertion order of map keys, and order is load-bearing here. Nested
// mappings render as inline tables so that scalar options and modifier
// blocks can interleave freely within a stage.
func serializeTOML(doc *document.Document) (string, error) {
	var b strings.Builder
	wroteTable := false
	for _, blk := range doc.Blocks {
		switch body := blk.Body.(type) {
		case *document.Mapping, nil:
			b.WriteString("\n[" + tomlKey(blk.Name) + "]\n")
			wroteTable = true
			if body == nil {
				continue
			}
			m := body.(*document.Mapping)
			for _, k := range m.Keys() {
				v, _ := m.Get(k)
				enc, err := tomlScalarText(v)
				if err != nil {
					return "", fmt.Errorf("block %q, key %q: %w", blk.Name, k, err)
				}
				b.WriteString(tomlKey(k) + " = " + enc + "\n")
			}
		default:
			// A scalar-bodied block (e.g. "version") becomes a top-level
			// assignment, which TOML only permits before the first table.
			if wroteTable {
				return "", fmt.Errorf("toml: scalar block %q cannot follow a table block", blk.Name)
			}
			enc, err := tomlScalarText(blk.Body)
			if err != nil {
				return "", fmt.Errorf("block %q: %w", blk.Name, err)
			}
			b.WriteString(tomlKey(blk.Name) + " = " + enc + "\n")
		}
	}
	return strings.TrimPrefix(b.String(), "\n"), nil
}

var tomlBareKeyRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func tomlKey(k string) string {
	if tomlBareKeyRe.MatchString(k) {
		return k
	}
	return strconv.Quote(k)
}

func tomlScalarText(v any) (string, error) {
	switch val := v.(type) {
	case bool:
		return strconv.FormatBool(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return formatFloat(val), nil
	case string:
		if strings.Contains(val, "\n") {
			return `"""` + "\n" + tomlEscapeMultiline(val) + `"""`, nil
		}
		return strconv.Quote(val), nil
	case []any:
		parts := make([]string, 0, len(val))
		for _, e := range val {
			enc, err := tomlScalarText(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, enc)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case *document.Mapping:
		parts := make([]string, 0, val.Len())
		for _, k := range val.Keys() {
			e, _ := val.Get(k)
			if s, ok := e.(string); ok && strings.Contains(s, "\n") {
				return "", fmt.Errorf("toml: multi-line string not representable inside an inline table")
			}
			enc, err := tomlScalarText(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, tomlKey(k)+" = "+enc)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	case nil:
		return "", fmt.Errorf("toml: null value not representable")
	}
	return "", fmt.Errorf("toml: cannot serialize value of type %T", v)
}

func tomlEscapeMultiline(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"""`, `""\"`)
	return s
}
