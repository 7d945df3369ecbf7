package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/qcflow/internal/document"
)

// pyLiteral renders a model value as Python source.
func pyLiteral(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "None", nil
	case bool:
		if val {
			return "True", nil
		}
		return "False", nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return pyFloat(val), nil
	case string:
		return pyString(val), nil
	case []any:
		parts := make([]string, 0, len(val))
		for _, e := range val {
			lit, err := pyLiteral(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, lit)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case *document.Mapping:
		parts := make([]string, 0, val.Len())
		for _, k := range val.Keys() {
			e, _ := val.Get(k)
			lit, err := pyLiteral(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, pyString(k)+": "+lit)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	}
	return "", fmt.Errorf("cannot render value of type %T as a Python literal", v)
}

// pyFloat keeps whole floats float-typed in the generated source.
func pyFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// pyString renders a string literal; multi-line text (geometry blocks)
// becomes a triple-quoted block to stay readable.
func pyString(s string) string {
	if strings.Contains(s, "\n") && !strings.Contains(s, `"""`) && !strings.HasSuffix(s, `"`) {
		escaped := strings.ReplaceAll(s, `\`, `\\`)
		return `"""` + escaped + `"""`
	}
	return strconv.Quote(s)
}

// pyArgs renders a call argument list: positional arguments first, then
// keyword arguments in declaration order.
func pyArgs(args []any, kwargs *document.Mapping) (string, error) {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		lit, err := pyLiteral(a)
		if err != nil {
			return "", err
		}
		parts = append(parts, lit)
	}
	if kwargs != nil {
		for _, k := range kwargs.Keys() {
			v, _ := kwargs.Get(k)
			lit, err := pyLiteral(v)
			if err != nil {
				return "", err
			}
			parts = append(parts, k+"="+lit)
		}
	}
	return strings.Join(parts, ", "), nil
}
