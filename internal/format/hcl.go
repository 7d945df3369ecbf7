package format

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/qcflow/internal/document"
)

// The HCL adapter is the "fourth format" extension. Stage blocks whose name
// is a valid HCL identifier are plain blocks (`HF { ... }`); any other name
// uses the labeled form (`stage "CASSCF(2,2)" { ... }`). Scalar-bodied
// blocks such as `version` are top-level attributes, and nested option
// mappings are nested blocks, which keeps key order in the source.
const hclStageBlockType = "stage"

func hclDiagError(diags hcl.Diagnostics) error {
	pe := &ParseError{Format: HCL, Msg: diags.Error()}
	for _, d := range diags {
		if d.Subject != nil {
			pe.Line = d.Subject.Start.Line
			pe.Column = d.Subject.Start.Column
			break
		}
	}
	return pe
}

func parseHCL(text string) (*document.Document, error) {
	file, diags := hclsyntax.ParseConfig([]byte(text), "input.hcl", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, hclDiagError(diags)
	}
	body := file.Body.(*hclsyntax.Body)
	src := []byte(text)

	doc := &document.Document{}
	for _, item := range orderedBodyItems(body) {
		switch it := item.(type) {
		case *hclsyntax.Attribute:
			v, err := hclExprValue(it.Expr, src)
			if err != nil {
				return nil, err
			}
			doc.Append(it.Name, v)
		case *hclsyntax.Block:
			name, err := hclBlockName(it)
			if err != nil {
				return nil, err
			}
			m, err := hclBodyMapping(it.Body, src)
			if err != nil {
				return nil, err
			}
			doc.Append(name, m)
		}
	}
	return doc, nil
}

func hclBlockName(b *hclsyntax.Block) (string, error) {
	if b.Type == hclStageBlockType && len(b.Labels) == 1 {
		return b.Labels[0], nil
	}
	if len(b.Labels) != 0 {
		return "", &ParseError{
			Format: HCL,
			Line:   b.TypeRange.Start.Line,
			Column: b.TypeRange.Start.Column,
			Msg:    fmt.Sprintf("block %q must not carry labels", b.Type),
		}
	}
	return b.Type, nil
}

// orderedBodyItems merges a body's attributes and blocks back into source
// order; hclsyntax keeps attributes in a map.
func orderedBodyItems(body *hclsyntax.Body) []any {
	items := make([]any, 0, len(body.Attributes)+len(body.Blocks))
	for _, attr := range body.Attributes {
		items = append(items, attr)
	}
	for _, blk := range body.Blocks {
		items = append(items, blk)
	}
	sort.Slice(items, func(i, j int) bool {
		return hclItemStart(items[i]) < hclItemStart(items[j])
	})
	return items
}

func hclItemStart(item any) int {
	switch it := item.(type) {
	case *hclsyntax.Attribute:
		return it.SrcRange.Start.Byte
	case *hclsyntax.Block:
		return it.TypeRange.Start.Byte
	}
	return 0
}

func hclBodyMapping(body *hclsyntax.Body, src []byte) (*document.Mapping, error) {
	m := document.NewMapping()
	for _, item := range orderedBodyItems(body) {
		switch it := item.(type) {
		case *hclsyntax.Attribute:
			v, err := hclExprValue(it.Expr, src)
			if err != nil {
				return nil, err
			}
			m.Set(it.Name, v)
		case *hclsyntax.Block:
			name, err := hclBlockName(it)
			if err != nil {
				return nil, err
			}
			sub, err := hclBodyMapping(it.Body, src)
			if err != nil {
				return nil, err
			}
			m.Set(name, sub)
		}
	}
	return m, nil
}

func hclExprValue(expr hclsyntax.Expression, src []byte) (any, error) {
	switch e := expr.(type) {
	case *hclsyntax.TupleConsExpr:
		out := make([]any, 0, len(e.Exprs))
		for _, el := range e.Exprs {
			v, err := hclExprValue(el, src)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case *hclsyntax.ObjectConsExpr:
		m := document.NewMapping()
		for _, item := range e.Items {
			key := hcl.ExprAsKeyword(item.KeyExpr)
			if key == "" {
				kv, diags := item.KeyExpr.Value(nil)
				if diags.HasErrors() || kv.Type() != cty.String {
					return nil, hclDiagError(diags)
				}
				key = kv.AsString()
			}
			v, err := hclExprValue(item.ValueExpr, src)
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		return m, nil
	default:
		v, diags := expr.Value(nil)
		if diags.HasErrors() {
			return nil, hclDiagError(diags)
		}
		return hclCtyValue(v, exprText(expr, src))
	}
}

func exprText(expr hclsyntax.Expression, src []byte) string {
	rng := expr.Range()
	if rng.Start.Byte >= 0 && rng.End.Byte <= len(src) {
		return string(src[rng.Start.Byte:rng.End.Byte])
	}
	return ""
}

// hclCtyValue converts an evaluated scalar. The expression's source text
// decides whether a number is an integer or a float, since cty folds both
// into one number type.
func hclCtyValue(v cty.Value, text string) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return v.True(), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() && !strings.ContainsAny(text, ".eE") {
			i, _ := bf.Int64()
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	}
	return nil, &ParseError{Format: HCL, Msg: fmt.Sprintf("unsupported value of type %s", v.Type().FriendlyName())}
}

func serializeHCL(doc *document.Document) (string, error) {
	file := hclwrite.NewEmptyFile()
	root := file.Body()
	for _, blk := range doc.Blocks {
		switch body := blk.Body.(type) {
		case *document.Mapping:
			wb := appendHCLBlock(root, blk.Name)
			if err := writeHCLBody(wb.Body(), body); err != nil {
				return "", fmt.Errorf("block %q: %w", blk.Name, err)
			}
		case nil:
			appendHCLBlock(root, blk.Name)
		default:
			tokens, err := hclValueTokens(blk.Body)
			if err != nil {
				return "", fmt.Errorf("block %q: %w", blk.Name, err)
			}
			root.SetAttributeRaw(blk.Name, tokens)
		}
	}
	return string(file.Bytes()), nil
}

func appendHCLBlock(parent *hclwrite.Body, name string) *hclwrite.Block {
	if hclsyntax.ValidIdentifier(name) {
		return parent.AppendNewBlock(name, nil)
	}
	return parent.AppendNewBlock(hclStageBlockType, []string{name})
}

func writeHCLBody(body *hclwrite.Body, m *document.Mapping) error {
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		if sub, ok := v.(*document.Mapping); ok {
			wb := appendHCLBlock(body, k)
			if err := writeHCLBody(wb.Body(), sub); err != nil {
				return err
			}
			continue
		}
		if !hclsyntax.ValidIdentifier(k) {
			return fmt.Errorf("hcl: option key %q is not a valid identifier", k)
		}
		tokens, err := hclValueTokens(v)
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		body.SetAttributeRaw(k, tokens)
	}
	return nil
}

func hclValueTokens(v any) (hclwrite.Tokens, error) {
	text, err := hclValueText(v)
	if err != nil {
		return nil, err
	}
	return hclwrite.Tokens{
		{Type: hclsyntax.TokenIdent, Bytes: []byte(text)},
	}, nil
}

func hclValueText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return strconv.FormatBool(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return formatFloat(val), nil
	case string:
		return hclQuote(val), nil
	case []any:
		parts := make([]string, 0, len(val))
		for _, e := range val {
			t, err := hclValueText(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, t)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case *document.Mapping:
		// Mappings inside sequences have no block form; fall back to an
		// object expression, whose item order also survives parsing.
		parts := make([]string, 0, val.Len())
		for _, k := range val.Keys() {
			e, _ := val.Get(k)
			t, err := hclValueText(e)
			if err != nil {
				return "", err
			}
			key := k
			if !hclsyntax.ValidIdentifier(k) {
				key = hclQuote(k)
			}
			parts = append(parts, key+" = "+t)
		}
		return "{ " + strings.Join(parts, ", ") + " }", nil
	}
	return "", fmt.Errorf("hcl: cannot serialize value of type %T", v)
}

// hclQuote renders a string literal, defusing template interpolation
// sequences so the text reads back verbatim.
func hclQuote(s string) string {
	q := strconv.Quote(s)
	q = strings.ReplaceAll(q, "${", "$${")
	q = strings.ReplaceAll(q, "%{", "%%{")
	return q
}
