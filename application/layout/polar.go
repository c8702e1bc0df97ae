package layout

import (
	"math"
	"math/rand"

	"kgraph/domain/config"
	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/valueobjects"
)

// PolarPlacer places children around their parent at a fixed radius with
// regular angular spacing. It is the cheap alternative to the full force
// simulation for expansion-style construction.
type PolarPlacer struct {
	cfg *config.DomainConfig
	rng *rand.Rand
}

// NewPolarPlacer creates a placer. A nil source falls back to a fixed seed.
func NewPolarPlacer(cfg *config.DomainConfig, src rand.Source) *PolarPlacer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if src == nil {
		src = rand.NewSource(1)
	}
	return &PolarPlacer{cfg: cfg, rng: rand.New(src)}
}

// PlaceChild computes a child position from the parent position and the
// child's sibling index. The jitter never exceeds half the configured
// budget, just enough to keep same-index children from stacking exactly.
func (p *PolarPlacer) PlaceChild(parent valueobjects.Position, siblingIndex int) valueobjects.Position {
	jitter := (p.rng.Float64() - 0.5) * p.cfg.ChildJitter
	angleDeg := p.cfg.ChildAngleOffset + float64(siblingIndex)*p.cfg.ChildAngleStep
	angle := (angleDeg + jitter) * math.Pi / 180

	return valueobjects.Position{
		X: parent.X + p.cfg.ChildRadius*math.Cos(angle),
		Y: parent.Y + p.cfg.ChildRadius*math.Sin(angle),
	}
}

// PlaceDescendants lays out the subtree under root depth-first, assigning
// positions to unplaced children only. Nodes that already carry a
// position are skipped along with nothing else: their children still get
// visited, anchored on the existing position.
func (p *PolarPlacer) PlaceDescendants(g *aggregates.Graph, rootID valueobjects.NodeID) error {
	root, err := g.GetNode(rootID)
	if err != nil {
		return err
	}
	if !root.HasPosition() {
		center := valueobjects.Position{X: p.cfg.CanvasWidth / 2, Y: p.cfg.CanvasHeight / 2}
		if err := root.MoveTo(center); err != nil {
			return err
		}
	}

	children := childrenOf(g, rootID)
	visited := map[valueobjects.NodeID]bool{rootID: true}
	return p.placeChildren(g, *root.Position(), children, visited)
}

func (p *PolarPlacer) placeChildren(g *aggregates.Graph, parent valueobjects.Position, children []valueobjects.NodeID, visited map[valueobjects.NodeID]bool) error {
	for i, childID := range children {
		if visited[childID] {
			continue
		}
		visited[childID] = true

		child, err := g.GetNode(childID)
		if err != nil {
			continue
		}
		if !child.HasPosition() {
			if err := child.MoveTo(p.PlaceChild(parent, i)); err != nil {
				return err
			}
		}
		if err := p.placeChildren(g, *child.Position(), childrenOf(g, childID), visited); err != nil {
			return err
		}
	}
	return nil
}

// childrenOf lists edge targets whose source is the given node, in edge order
func childrenOf(g *aggregates.Graph, parentID valueobjects.NodeID) []valueobjects.NodeID {
	var children []valueobjects.NodeID
	for _, e := range g.Edges() {
		if e.Source.Equals(parentID) {
			children = append(children, e.Target)
		}
	}
	return children
}
