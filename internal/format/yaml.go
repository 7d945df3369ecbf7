package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/qcflow/internal/document"
)

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

func yamlParseError(err error) error {
	pe := &ParseError{Format: YAML, Msg: err.Error()}
	if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
	}
	return pe
}

func parseYAML(text string) (*document.Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, yamlParseError(err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return &document.Document{}, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, &ParseError{Format: YAML, Line: top.Line, Msg: "top level must be a mapping of blocks"}
	}

	doc := &document.Document{}
	for i := 0; i < len(top.Content); i += 2 {
		key := top.Content[i]
		body, err := yamlValue(top.Content[i+1])
		if err != nil {
			return nil, err
		}
		doc.Append(key.Value, body)
	}
	return doc, nil
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.ScalarNode:
		return yamlScalar(n)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		m := document.NewMapping()
		for i := 0; i < len(n.Content); i += 2 {
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(n.Content[i].Value, v)
		}
		return m, nil
	}
	return nil, &ParseError{Format: YAML, Line: n.Line, Msg: fmt.Sprintf("unsupported node kind %d", n.Kind)}
}

func yamlScalar(n *yaml.Node) (any, error) {
	switch n.Tag {
	case "!!null":
		return nil, nil
	case "!!bool":
		return strings.EqualFold(n.Value, "true"), nil
	case "!!int":
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, &ParseError{Format: YAML, Line: n.Line, Msg: fmt.Sprintf("bad integer %q", n.Value)}
		}
		return v, nil
	case "!!float":
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, &ParseError{Format: YAML, Line: n.Line, Msg: fmt.Sprintf("bad float %q", n.Value)}
		}
		return v, nil
	default:
		return n.Value, nil
	}
}

func serializeYAML(doc *document.Document) (string, error) {
	top := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, b := range doc.Blocks {
		key := &yaml.Node{}
		key.SetString(b.Name)
		val, err := yamlNode(b.Body)
		if err != nil {
			return "", err
		}
		top.Content = append(top.Content, key, val)
	}
	out, err := yaml.Marshal(top)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func yamlNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(val)}, nil
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(val, 10)}, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(val)}, nil
	case string:
		// SetString picks literal block style for multi-line strings, which
		// keeps geometry blocks readable in the output.
		n := &yaml.Node{}
		n.SetString(val)
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range val {
			c, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case *document.Mapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range val.Keys() {
			key := &yaml.Node{}
			key.SetString(k)
			e, _ := val.Get(k)
			c, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, key, c)
		}
		return n, nil
	}
	return nil, fmt.Errorf("yaml: cannot serialize value of type %T", v)
}

// formatFloat renders a float so it reads back as a float: whole values keep
// a trailing ".0" instead of collapsing into integer syntax.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
