package layout

import (
	"math"

	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
)

// resolvedLink is a link with endpoint indexes and the per-link constants
// that only change when the link set is rebuilt.
type resolvedLink struct {
	source, target int
	weight         float64
	distance       float64
	// bias is the share of the correction applied to the source; the
	// lower-degree endpoint moves more.
	bias float64
}

func resolveLinks(links []entities.Link, index map[valueobjects.NoteID]int) []resolvedLink {
	degree := make(map[int]int, len(index))
	out := make([]resolvedLink, 0, len(links))
	for _, l := range links {
		si, ok1 := index[l.Source]
		ti, ok2 := index[l.Target]
		if !ok1 || !ok2 {
			continue
		}
		degree[si]++
		degree[ti]++
		out = append(out, resolvedLink{
			source:   si,
			target:   ti,
			weight:   l.Weight,
			distance: linkDistance(l.Weight),
		})
	}
	for i := range out {
		s, t := float64(degree[out[i].source]), float64(degree[out[i].target])
		out[i].bias = t / (s + t)
	}
	return out
}

// jiggle returns a tiny non-zero offset for coincident coordinates
func jiggle(rng valueobjects.Float64Source) float64 {
	j := (rng.Float64() - 0.5) * 1e-6
	if j == 0 {
		j = 1e-6
	}
	return j
}

// applyLinkForce pulls every linked pair toward its rest length, acting on
// predicted positions. A pinned endpoint hands its share to the other end.
func applyLinkForce(nodes []*entities.Node, links []resolvedLink, multiplier, alpha float64, rng valueobjects.Float64Source) {
	if multiplier == 0 {
		return
	}
	for _, l := range links {
		s, t := nodes[l.source], nodes[l.target]
		if s.Pinned() && t.Pinned() {
			continue
		}
		strength := l.weight * multiplier
		if strength == 0 {
			continue
		}

		dx := t.Position.X + t.Velocity.X - s.Position.X - s.Velocity.X
		dy := t.Position.Y + t.Velocity.Y - s.Position.Y - s.Velocity.Y
		if dx == 0 {
			dx = jiggle(rng)
		}
		if dy == 0 {
			dy = jiggle(rng)
		}
		d := math.Sqrt(dx*dx + dy*dy)
		k := (d - l.distance) / d * alpha * strength
		dx *= k
		dy *= k

		toTarget := 1 - l.bias
		switch {
		case s.Pinned():
			toTarget = 1
		case t.Pinned():
			toTarget = 0
		}
		t.Velocity.X -= dx * toTarget
		t.Velocity.Y -= dy * toTarget
		s.Velocity.X += dx * (1 - toTarget)
		s.Velocity.Y += dy * (1 - toTarget)
	}
}

// applyManyBody pushes every unpinned node away from every other node within
// MaxInteractionDistance. Pinned nodes still repel.
func applyManyBody(nodes []*entities.Node, strength, alpha float64, rng valueobjects.Float64Source) {
	if strength == 0 {
		return
	}
	const maxD2 = MaxInteractionDistance * MaxInteractionDistance
	const minD2 = MinDistance * MinDistance

	for i, a := range nodes {
		if a.Pinned() {
			continue
		}
		for j, b := range nodes {
			if i == j {
				continue
			}
			dx := b.Position.X - a.Position.X
			dy := b.Position.Y - a.Position.Y
			d2 := dx*dx + dy*dy
			if d2 >= maxD2 {
				continue
			}
			if dx == 0 {
				dx = jiggle(rng)
			}
			if dy == 0 {
				dy = jiggle(rng)
			}
			d2 = math.Max(dx*dx+dy*dy, minD2)

			w := strength * alpha / d2
			a.Velocity.X += dx * w
			a.Velocity.Y += dy * w
		}
	}
}

// applyCenter shifts the unpinned nodes' mean toward center. It moves the
// group as a whole and does not pull nodes into each other.
func applyCenter(nodes []*entities.Node, center valueobjects.Vector, strength float64) {
	if strength == 0 {
		return
	}
	var sum valueobjects.Vector
	n := 0
	for _, node := range nodes {
		if node.Pinned() {
			continue
		}
		sum = sum.Add(node.Position)
		n++
	}
	if n == 0 {
		return
	}

	shift := center.Sub(sum.Scale(1 / float64(n))).Scale(strength)
	for _, node := range nodes {
		if !node.Pinned() {
			node.Velocity = node.Velocity.Add(shift)
		}
	}
}

// applyCollision separates pairs closer than twice the radius, relaxing over
// CollisionIterations passes on predicted positions.
func applyCollision(nodes []*entities.Node, radius float64, rng valueobjects.Float64Source) {
	if radius <= 0 || len(nodes) < 2 {
		return
	}
	minSep := 2 * radius

	for pass := 0; pass < CollisionIterations; pass++ {
		for i := 0; i < len(nodes); i++ {
			a := nodes[i]
			for j := i + 1; j < len(nodes); j++ {
				b := nodes[j]
				if a.Pinned() && b.Pinned() {
					continue
				}

				dx := b.Position.X + b.Velocity.X - a.Position.X - a.Velocity.X
				dy := b.Position.Y + b.Velocity.Y - a.Position.Y - a.Velocity.Y
				d2 := dx*dx + dy*dy
				if d2 >= minSep*minSep {
					continue
				}
				if dx == 0 {
					dx = jiggle(rng)
				}
				if dy == 0 {
					dy = jiggle(rng)
				}
				dist := math.Sqrt(dx*dx + dy*dy)
				push := (minSep - math.Max(dist, MinDistance)) * CollisionStrength
				ux, uy := dx/dist*push, dy/dist*push

				shareA := 0.5
				switch {
				case a.Pinned():
					shareA = 0
				case b.Pinned():
					shareA = 1
				}
				a.Velocity.X -= ux * shareA
				a.Velocity.Y -= uy * shareA
				b.Velocity.X += ux * (1 - shareA)
				b.Velocity.Y += uy * (1 - shareA)
			}
		}
	}
}
