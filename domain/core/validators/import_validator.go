package validators

import (
	"bytes"
	"encoding/json"

	"kgraph/domain/core/aggregates"
	"kgraph/pkg/errors"
)

// ImportValidator validates graph documents arriving from outside the
// editor (file import, paste). A payload is only accepted when nodes and
// edges are both array-typed; anything else must never reach currentGraph.
type ImportValidator struct {
	maxPayloadBytes int
}

// NewImportValidator creates an import validator with default limits
func NewImportValidator() *ImportValidator {
	return &ImportValidator{
		maxPayloadBytes: 4 << 20, // 4 MiB
	}
}

// ValidateGraphData checks the structural shape of a raw import payload
// and returns the decoded document when it is acceptable.
func (v *ImportValidator) ValidateGraphData(raw []byte) (*aggregates.GraphDocument, error) {
	if len(raw) == 0 {
		return nil, errors.NewValidationError("import payload is empty")
	}
	if len(raw) > v.maxPayloadBytes {
		return nil, errors.NewValidationError("import payload too large")
	}

	var shape struct {
		Nodes json.RawMessage `json:"nodes"`
		Edges json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, errors.NewValidationError("import payload is not valid JSON").WithCause(err)
	}

	if !isJSONArray(shape.Nodes) {
		return nil, errors.NewValidationError("import payload requires array-typed nodes")
	}
	if !isJSONArray(shape.Edges) {
		return nil, errors.NewValidationError("import payload requires array-typed edges")
	}

	var doc aggregates.GraphDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewValidationError("import payload does not decode to a graph document").WithCause(err)
	}

	return &doc, nil
}

// isJSONArray reports whether the raw message is a JSON array literal
func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
