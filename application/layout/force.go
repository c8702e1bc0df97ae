// Package layout assigns canvas coordinates to graph nodes. The force
// simulator handles whole-graph auto layout; the polar placer handles
// incremental parent-to-child expansion. Both leave already-placed nodes
// exactly where they are, so re-running layout is idempotent for them.
package layout

import (
	"math"
	"math/rand"

	"kgraph/domain/config"
	"kgraph/domain/core/aggregates"
	"kgraph/domain/core/valueobjects"
)

// Body is one node fed to the simulation. Pos is nil when unplaced.
type Body struct {
	ID  valueobjects.NodeID
	Pos *valueobjects.Position
}

// Link is one edge fed to the simulation
type Link struct {
	Source valueobjects.NodeID
	Target valueobjects.NodeID
}

// Simulator computes positions for every body. Bodies that arrive with a
// position keep it bit-for-bit; only unplaced bodies are computed.
type Simulator interface {
	Simulate(bodies []Body, links []Link, width, height float64) map[valueobjects.NodeID]valueobjects.Position
}

// ForceSimulator runs a fixed-step physics simulation combining pairwise
// repulsion, centering, collision avoidance and link attraction. There is
// no convergence check: the tick budget bounds the work.
type ForceSimulator struct {
	cfg *config.DomainConfig
	rng *rand.Rand
}

// NewForceSimulator creates a simulator. A nil source falls back to a
// fixed seed, which keeps layouts reproducible in tests.
func NewForceSimulator(cfg *config.DomainConfig, src rand.Source) *ForceSimulator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if src == nil {
		src = rand.NewSource(1)
	}
	return &ForceSimulator{cfg: cfg, rng: rand.New(src)}
}

type point struct {
	id     valueobjects.NodeID
	x, y   float64
	vx, vy float64
	fixed  bool
}

// Simulate implements Simulator
func (s *ForceSimulator) Simulate(bodies []Body, links []Link, width, height float64) map[valueobjects.NodeID]valueobjects.Position {
	result := make(map[valueobjects.NodeID]valueobjects.Position, len(bodies))
	if len(bodies) == 0 {
		return result
	}
	if width <= 0 {
		width = s.cfg.CanvasWidth
	}
	if height <= 0 {
		height = s.cfg.CanvasHeight
	}

	centerX, centerY := width/2, height/2
	points := make([]*point, 0, len(bodies))
	index := make(map[valueobjects.NodeID]*point, len(bodies))
	anyFree := false

	for i, b := range bodies {
		p := &point{id: b.ID}
		if b.Pos != nil {
			p.x, p.y = b.Pos.X, b.Pos.Y
			p.fixed = true
		} else {
			// Seed unplaced nodes on a loose ring around the center so
			// the repulsion force has something to work with
			angle := float64(i) * 2.39996 // golden angle, spreads seeds
			r := 40 + 12*math.Sqrt(float64(i))
			p.x = centerX + r*math.Cos(angle) + s.rng.Float64()*4
			p.y = centerY + r*math.Sin(angle) + s.rng.Float64()*4
			anyFree = true
		}
		points = append(points, p)
		index[b.ID] = p
	}

	if anyFree {
		s.run(points, links, index, centerX, centerY)
	}

	maxX := math.Max(0, width-s.cfg.NodeWidth)
	maxY := math.Max(0, height-s.cfg.NodeHeight)
	for _, p := range points {
		if p.fixed {
			// Idempotence: pre-placed nodes come back untouched,
			// not even clamped
			result[p.id] = valueobjects.Position{X: p.x, Y: p.y}
			continue
		}
		result[p.id] = valueobjects.Position{X: p.x, Y: p.y}.Clamp(maxX, maxY)
	}
	return result
}

func (s *ForceSimulator) run(points []*point, links []Link, index map[valueobjects.NodeID]*point, centerX, centerY float64) {
	alpha := 1.0
	decay := math.Pow(0.005, 1/math.Max(1, float64(s.cfg.SimulationTicks)))

	for tick := 0; tick < s.cfg.SimulationTicks; tick++ {
		// Pairwise repulsion and collision
		for i := 0; i < len(points); i++ {
			for j := i + 1; j < len(points); j++ {
				a, b := points[i], points[j]
				dx, dy := b.x-a.x, b.y-a.y
				distSq := dx*dx + dy*dy
				if distSq < 1e-6 {
					// Coincident points get a nudge so the force has a direction
					dx, dy = s.rng.Float64()-0.5, s.rng.Float64()-0.5
					distSq = dx*dx + dy*dy
				}
				dist := math.Sqrt(distSq)

				repel := s.cfg.RepulsionStrength / distSq * alpha
				fx, fy := dx/dist*repel, dy/dist*repel
				a.push(-fx, -fy)
				b.push(fx, fy)

				if overlap := s.cfg.CollisionRadius - dist; overlap > 0 {
					cx, cy := dx/dist*overlap/2, dy/dist*overlap/2
					a.push(-cx, -cy)
					b.push(cx, cy)
				}
			}
		}

		// Link attraction toward the target separation
		for _, l := range links {
			a, ok1 := index[l.Source]
			b, ok2 := index[l.Target]
			if !ok1 || !ok2 {
				continue
			}
			dx, dy := b.x-a.x, b.y-a.y
			dist := math.Hypot(dx, dy)
			if dist < 1e-6 {
				continue
			}
			stretch := (dist - s.cfg.LinkDistance) / dist * 0.1 * alpha
			a.push(dx*stretch, dy*stretch)
			b.push(-dx*stretch, -dy*stretch)
		}

		// Centering
		for _, p := range points {
			p.push((centerX-p.x)*s.cfg.CenteringStrength*alpha, (centerY-p.y)*s.cfg.CenteringStrength*alpha)
		}

		// Integrate with velocity damping
		for _, p := range points {
			if p.fixed {
				p.vx, p.vy = 0, 0
				continue
			}
			p.x += p.vx
			p.y += p.vy
			p.vx *= 0.6
			p.vy *= 0.6
		}

		alpha *= decay
	}
}

func (p *point) push(fx, fy float64) {
	if p.fixed {
		return
	}
	p.vx += fx
	p.vy += fy
}

// GraphBodies extracts the simulation inputs from a graph aggregate
func GraphBodies(g *aggregates.Graph) ([]Body, []Link) {
	nodes := g.Nodes()
	bodies := make([]Body, 0, len(nodes))
	for _, n := range nodes {
		bodies = append(bodies, Body{ID: n.ID(), Pos: n.Position()})
	}
	edges := g.Edges()
	links := make([]Link, 0, len(edges))
	for _, e := range edges {
		links = append(links, Link{Source: e.Source, Target: e.Target})
	}
	return bodies, links
}

// ApplyLayout runs the simulator over a graph and writes back positions
// for nodes that had none. Returns the ids that were newly placed.
func ApplyLayout(g *aggregates.Graph, sim Simulator, width, height float64) ([]valueobjects.NodeID, error) {
	bodies, links := GraphBodies(g)
	positions := sim.Simulate(bodies, links, width, height)

	placed := make([]valueobjects.NodeID, 0)
	for _, b := range bodies {
		if b.Pos != nil {
			continue
		}
		pos, ok := positions[b.ID]
		if !ok {
			continue
		}
		node, err := g.GetNode(b.ID)
		if err != nil {
			continue
		}
		if err := node.MoveTo(pos); err != nil {
			return placed, err
		}
		placed = append(placed, b.ID)
	}
	return placed, nil
}
