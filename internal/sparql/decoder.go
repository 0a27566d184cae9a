package sparql

import "encoding/json"

// wireResult mirrors the common shape of both the generic SPARQL 1.1
// results JSON format and QLever's own format for SELECT queries: a "head"
// listing variable names and a "results"/"bindings" array of term objects
// keyed by variable name. QLever's is a strict subset of the W3C format for
// the fields this system reads, so one struct decodes both.
type wireResult struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]wireTerm `json:"bindings"`
	} `json:"results"`
}

type wireTerm struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func decodeBindings(body []byte) ([]Binding, error) {
	var wr wireResult
	if err := json.Unmarshal(body, &wr); err != nil {
		return nil, err
	}
	out := make([]Binding, 0, len(wr.Results.Bindings))
	for _, row := range wr.Results.Bindings {
		b := make(Binding, len(row))
		for k, v := range row {
			b[k] = v.Value
		}
		out = append(out, b)
	}
	return out, nil
}

// GenericDecoder decodes the standard "application/sparql-results+json"
// format used by most SPARQL 1.1 endpoints.
type GenericDecoder struct{}

func (GenericDecoder) Accept() string { return "application/sparql-results+json" }

func (GenericDecoder) Decode(body []byte) ([]Binding, error) {
	return decodeBindings(body)
}

// QLeverDecoder decodes QLever's "application/qlever-results+json" format,
// which this implementation treats as wire-compatible with the generic
// format for the fields C5's operations read (spec.md §6: "QLever mode adds
// application/qlever-results+json").
type QLeverDecoder struct{}

func (QLeverDecoder) Accept() string { return "application/qlever-results+json" }

func (QLeverDecoder) Decode(body []byte) ([]Binding, error) {
	return decodeBindings(body)
}
