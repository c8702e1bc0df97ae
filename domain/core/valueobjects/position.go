package valueobjects

import (
	"fmt"
	"math"
)

// Position is a value object for a node's 2D canvas coordinates
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition creates a position after checking both coordinates are finite
func NewPosition(x, y float64) (Position, error) {
	p := Position{X: x, Y: y}
	if !p.IsValid() {
		return Position{}, fmt.Errorf("position coordinates must be finite numbers: (%v, %v)", x, y)
	}
	return p, nil
}

// IsValid reports whether both coordinates are finite, non-NaN numbers
func (p Position) IsValid() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Equals checks if two positions are equal
func (p Position) Equals(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

// Clamp constrains the position into [0, maxX] x [0, maxY]
func (p Position) Clamp(maxX, maxY float64) Position {
	return Position{
		X: math.Min(math.Max(p.X, 0), maxX),
		Y: math.Min(math.Max(p.Y, 0), maxY),
	}
}
