package pipeline

import (
	"fmt"

	"github.com/vk/qcflow/internal/document"
	"github.com/vk/qcflow/internal/registry"
)

// Reserved per-block key whose value is always extracted into result
// requests and never bound as an argument.
const resultsKey = "results"

// bindStage distributes a block's options, in declaration order, into
// constructor keyword options, wrapper calls, and result requests.
func bindStage(st *Stage, body *document.Mapping, reg *registry.Registry) error {
	if body == nil {
		return nil
	}
	for _, key := range body.Keys() {
		value, _ := body.Get(key)
		switch {
		case key == resultsKey:
			requests, err := parseResults(st.Block, value)
			if err != nil {
				return err
			}
			st.Results = requests
		case reg.IsWrapper(key):
			w, err := parseWrapper(st.Block, key, value)
			if err != nil {
				return err
			}
			st.Wrappers = append(st.Wrappers, w)
		default:
			st.Options.Set(key, value)
		}
	}
	return nil
}

// parseWrapper binds one nested modifier key. A mapping value becomes
// keyword arguments, a sequence positional arguments, a scalar one
// positional argument, and an empty value a bare call.
func parseWrapper(block, key string, value any) (Wrapper, error) {
	w := Wrapper{Name: key}
	switch v := value.(type) {
	case nil:
	case *document.Mapping:
		w.Options = v
	case []any:
		w.Args = v
	case bool, int64, float64, string:
		w.Args = []any{v}
	default:
		return w, &BindingError{Block: block, Key: key, Msg: fmt.Sprintf("unsupported wrapper value of type %T", value)}
	}
	return w, nil
}

// parseResults turns the reserved results key into requests. A bare scalar
// is accepted as a one-element sequence. Each sequence entry is either a
// name (attribute read) or a mapping of name to call arguments.
func parseResults(block string, value any) ([]ResultRequest, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []ResultRequest{{Name: v}}, nil
	case []any:
		var requests []ResultRequest
		for i, entry := range v {
			switch e := entry.(type) {
			case string:
				requests = append(requests, ResultRequest{Name: e})
			case *document.Mapping:
				calls, err := parseResultCalls(block, e)
				if err != nil {
					return nil, err
				}
				requests = append(requests, calls...)
			default:
				return nil, &BindingError{
					Block: block,
					Key:   resultsKey,
					Msg:   fmt.Sprintf("entry %d must be a name or a name-to-arguments mapping, got %T", i, entry),
				}
			}
		}
		return requests, nil
	case *document.Mapping:
		return parseResultCalls(block, v)
	}
	return nil, &BindingError{
		Block: block,
		Key:   resultsKey,
		Msg:   fmt.Sprintf("must be a name, a sequence, or a mapping, got %T", value),
	}
}

// parseResultCalls binds mapping-shaped result entries: the key names the
// method, the value supplies positional (sequence) or keyword (mapping)
// arguments.
func parseResultCalls(block string, m *document.Mapping) ([]ResultRequest, error) {
	requests := make([]ResultRequest, 0, m.Len())
	for _, name := range m.Keys() {
		args, _ := m.Get(name)
		req := ResultRequest{Name: name, Call: true}
		switch a := args.(type) {
		case nil:
		case []any:
			req.Args = a
		case *document.Mapping:
			req.Kwargs = a
		case bool, int64, float64, string:
			req.Args = []any{a}
		default:
			return nil, &BindingError{
				Block: block,
				Key:   resultsKey,
				Msg:   fmt.Sprintf("arguments for %q must be a sequence or a mapping, got %T", name, args),
			}
		}
		requests = append(requests, req)
	}
	return requests, nil
}
