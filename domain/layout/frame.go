package layout

import (
	"time"

	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
)

// NodeFrame is the emitted position of one node
type NodeFrame struct {
	ID       string  `json:"id"`
	Category string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pinned   bool    `json:"pinned,omitempty"`
}

// LinkFrame is one link with both endpoint positions
type LinkFrame struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Weight float64 `json:"weight"`
}

// Frame is everything a renderer needs for one animation frame
type Frame struct {
	Tick  uint64      `json:"tick"`
	Alpha float64     `json:"alpha"`
	Nodes []NodeFrame `json:"nodes"`
	Links []LinkFrame `json:"links"`
}

// FrameFunc receives every emitted frame. It runs on the engine's goroutine
// and must not call back into the engine.
type FrameFunc func(Frame)

// Recorder observes engine activity; observability adapters implement it.
type Recorder interface {
	ObserveTick(duration time.Duration, nodes, links int, alpha float64)
	ObserveReconcile(added, removed, rejected int)
	ObserveNodeReset()
}

type nopRecorder struct{}

func (nopRecorder) ObserveTick(time.Duration, int, int, float64) {}
func (nopRecorder) ObserveReconcile(int, int, int)              {}
func (nopRecorder) ObserveNodeReset()                           {}

// buildFrame copies the current state into a detached frame
func buildFrame(tick uint64, alpha float64, nodes []*entities.Node, index map[valueobjects.NoteID]int, links []entities.Link) Frame {
	frame := Frame{
		Tick:  tick,
		Alpha: alpha,
		Nodes: make([]NodeFrame, len(nodes)),
		Links: make([]LinkFrame, 0, len(links)),
	}
	for i, n := range nodes {
		frame.Nodes[i] = NodeFrame{
			ID:       n.ID().String(),
			Category: n.Note.Category.String(),
			X:        n.Position.X,
			Y:        n.Position.Y,
			Pinned:   n.Pinned(),
		}
	}
	for _, l := range links {
		si, ok1 := index[l.Source]
		ti, ok2 := index[l.Target]
		if !ok1 || !ok2 {
			continue
		}
		s, t := nodes[si].Position, nodes[ti].Position
		frame.Links = append(frame.Links, LinkFrame{
			Source: l.Source.String(),
			Target: l.Target.String(),
			X1:     s.X,
			Y1:     s.Y,
			X2:     t.X,
			Y2:     t.Y,
			Weight: l.Weight,
		})
	}
	return frame
}
