package machine

import (
	"math"

	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/validators"
)

// IsValidPosition reports whether both coordinates are finite numbers
func IsValidPosition(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && !math.IsNaN(y) && !math.IsInf(y, 0)
}

// IsValidGraphData reports whether a raw payload is an importable document
func IsValidGraphData(raw []byte) bool {
	_, err := ValidateGraphData(raw)
	return err == nil
}

// ValidateGraphData checks an import payload and decodes it on success
func ValidateGraphData(raw []byte) (*aggregates.GraphDocument, error) {
	return validators.NewImportValidator().ValidateGraphData(raw)
}
