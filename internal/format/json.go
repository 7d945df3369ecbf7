package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vk/qcflow/internal/document"
)

// parseJSON decodes with the token-level API so object key order survives;
// the stock Unmarshal into map[string]any would shuffle it.
func parseJSON(text string) (*document.Document, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, jsonParseError(text, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, &ParseError{Format: JSON, Line: 1, Msg: "top level must be an object of blocks"}
	}

	doc := &document.Document{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, jsonParseError(text, err)
		}
		key := keyTok.(string)
		body, err := jsonValue(dec, text)
		if err != nil {
			return nil, err
		}
		doc.Append(key, body)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, jsonParseError(text, err)
	}
	return doc, nil
}

// DecodeJSONValue parses one standalone JSON value into the document model
// (ordered mappings, int64/float64 numbers). The execution bridge uses it
// to decode captured result lines.
func DecodeJSONValue(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := jsonValue(dec, text)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Format: JSON, Msg: "trailing data after JSON value"}
	}
	return v, nil
}

func jsonValue(dec *json.Decoder, text string) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, jsonParseError(text, err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := document.NewMapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, jsonParseError(text, err)
				}
				v, err := jsonValue(dec, text)
				if err != nil {
					return nil, err
				}
				m.Set(keyTok.(string), v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, jsonParseError(text, err)
			}
			return m, nil
		case '[':
			var out []any
			for dec.More() {
				v, err := jsonValue(dec, text)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, jsonParseError(text, err)
			}
			if out == nil {
				out = []any{}
			}
			return out, nil
		}
		return nil, &ParseError{Format: JSON, Msg: fmt.Sprintf("unexpected delimiter %q", t)}
	case json.Number:
		return jsonNumber(t)
	case string, bool, nil:
		return t, nil
	}
	return nil, &ParseError{Format: JSON, Msg: fmt.Sprintf("unexpected token %v", tok)}
}

func jsonNumber(n json.Number) (any, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if v, err := n.Int64(); err == nil {
			return v, nil
		}
	}
	return n.Float64()
}

func jsonParseError(text string, err error) error {
	pe := &ParseError{Format: JSON, Msg: err.Error()}
	if syn, ok := err.(*json.SyntaxError); ok {
		pe.Line, pe.Column = lineColAt(text, syn.Offset)
	}
	return pe
}

// lineColAt converts a byte offset into a 1-based line and column.
func lineColAt(text string, offset int64) (int, int) {
	if offset > int64(len(text)) {
		offset = int64(len(text))
	}
	head := text[:offset]
	line := strings.Count(head, "\n") + 1
	col := len(head) - strings.LastIndex(head, "\n")
	return line, col
}

func serializeJSON(doc *document.Document) (string, error) {
	var b strings.Builder
	b.WriteString("{\n")
	for i, blk := range doc.Blocks {
		b.WriteString("    ")
		writeJSONString(&b, blk.Name)
		b.WriteString(": ")
		if err := writeJSONValue(&b, blk.Body, 1); err != nil {
			return "", err
		}
		if i < len(doc.Blocks)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func writeJSONValue(b *strings.Builder, v any, depth int) error {
	indent := strings.Repeat("    ", depth)
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case float64:
		b.WriteString(formatFloat(val))
	case string:
		writeJSONString(b, val)
	case []any:
		if len(val) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[\n")
		for i, e := range val {
			b.WriteString(indent + "    ")
			if err := writeJSONValue(b, e, depth+1); err != nil {
				return err
			}
			if i < len(val)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + "]")
	case *document.Mapping:
		if val.Len() == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteString("{\n")
		keys := val.Keys()
		for i, k := range keys {
			b.WriteString(indent + "    ")
			writeJSONString(b, k)
			b.WriteString(": ")
			e, _ := val.Get(k)
			if err := writeJSONValue(b, e, depth+1); err != nil {
				return err
			}
			if i < len(keys)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + "}")
	default:
		return fmt.Errorf("json: cannot serialize value of type %T", v)
	}
	return nil
}

func writeJSONString(b *strings.Builder, s string) {
	enc, _ := json.Marshal(s)
	b.Write(enc)
}
