package bridge

import (
	"github.com/vk/qcflow/internal/document"
	"github.com/vk/qcflow/internal/pipeline"
)

// ResultDocument builds the output document from a run: a copy of the
// input document in which every block's "results" option is replaced by
// the captured name-to-value mapping. Requests the runtime never reported
// are recorded as per-request failures instead of being dropped.
func ResultDocument(doc *document.Document, p *pipeline.Pipeline, res *Result) *document.Document {
	out := doc.Clone()
	for _, st := range p.Stages {
		if len(st.Results) == 0 {
			continue
		}
		body := blockMapping(out, st.Block)
		if body == nil {
			continue
		}
		values := document.NewMapping()
		for _, req := range st.Results {
			if v, ok := res.Lookup(st.Block, req.Name); ok {
				values.Set(req.Name, v)
				continue
			}
			failure := document.NewMapping()
			failure.Set("error", "result not captured")
			values.Set(req.Name, failure)
		}
		body.Set("results", values)
	}
	return out
}

func blockMapping(doc *document.Document, name string) *document.Mapping {
	for i, b := range doc.Blocks {
		if b.Name != name {
			continue
		}
		if m, ok := b.Body.(*document.Mapping); ok {
			return m
		}
		m := document.NewMapping()
		doc.Blocks[i].Body = m
		return m
	}
	return nil
}
