package valueobjects

import "encoding/json"

// Viewport holds a graph's pan and zoom state
type Viewport struct {
	Zoom float64  `json:"zoom"`
	Pan  Position `json:"pan"`
}

// DefaultViewport returns the fit-to-contents viewport used when nothing
// has been persisted for a graph yet. Zoom 0 tells the renderer to fit.
func DefaultViewport() Viewport {
	return Viewport{}
}

// IsZero reports whether the viewport carries no stored state
func (v Viewport) IsZero() bool {
	return v.Zoom == 0 && v.Pan.X == 0 && v.Pan.Y == 0
}

// UnmarshalJSON accepts both the {zoom, pan} and the legacy
// {zoom, position} wire shapes.
func (v *Viewport) UnmarshalJSON(data []byte) error {
	var raw struct {
		Zoom     float64   `json:"zoom"`
		Pan      *Position `json:"pan"`
		Position *Position `json:"position"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.Zoom = raw.Zoom
	switch {
	case raw.Pan != nil:
		v.Pan = *raw.Pan
	case raw.Position != nil:
		v.Pan = *raw.Position
	default:
		v.Pan = Position{}
	}
	return nil
}
