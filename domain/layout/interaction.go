package layout

import (
	"go.uber.org/zap"

	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// DragSession is one active gesture on a node
type DragSession struct {
	// Grab is where the pointer first touched the node
	Grab valueobjects.Vector `json:"grab"`
	// Pointer is Grab plus every delta received so far
	Pointer valueobjects.Vector `json:"pointer"`
	// Origin is the node position when the gesture started
	Origin valueobjects.Vector `json:"origin"`
}

// InteractionController turns pointer gestures into node mutations. While a
// node is moved it is pinned, so the user and not the simulation decides its
// position. Releasing a node returns it to free dynamics immediately.
type InteractionController struct {
	engine *Engine
}

// DragStart records that id is now under manual control. The node is not
// pinned until the first DragMove. Starting again on a node that is already
// being dragged restarts the session.
func (c *InteractionController) DragStart(id valueobjects.NoteID, point valueobjects.Vector) error {
	e := c.engine
	node, err := e.lookup(id)
	if err != nil {
		return err
	}
	if !point.IsFinite() {
		return pkgerrors.NewValidation("drag point must be finite")
	}

	e.drags[id] = &DragSession{Grab: point, Pointer: point, Origin: node.Position}
	e.alphaTarget = DragAlphaTarget
	e.logger.Debug("drag started", zap.String("id", id.String()))
	return nil
}

// DragMove adds delta to the node position and pins it there
func (c *InteractionController) DragMove(id valueobjects.NoteID, delta valueobjects.Vector) error {
	e := c.engine
	node, err := e.lookup(id)
	if err != nil {
		return err
	}
	session, ok := e.drags[id]
	if !ok {
		return pkgerrors.NewConflict("node " + id.String() + " is not being dragged")
	}
	if !delta.IsFinite() {
		return pkgerrors.NewValidation("drag delta must be finite")
	}

	session.Pointer = session.Pointer.Add(delta)
	node.PinAt(node.Position.Add(delta))
	return nil
}

// DragEnd clears the pin. There is no stick-where-dropped behaviour: the node
// rejoins the simulation on the next tick, so the release reheats a settled
// layout. Ending a drag that was never started only unpins.
func (c *InteractionController) DragEnd(id valueobjects.NoteID) error {
	e := c.engine
	node, err := e.lookup(id)
	if err != nil {
		return err
	}

	node.Unpin()
	delete(e.drags, id)
	if len(e.drags) == 0 {
		e.alphaTarget = 0
	}
	e.reheat(RestartAlpha)
	e.logger.Debug("drag ended", zap.String("id", id.String()))
	return nil
}

// Session returns the active gesture on id, if any
func (c *InteractionController) Session(id valueobjects.NoteID) (DragSession, bool) {
	s, ok := c.engine.drags[id]
	if !ok {
		return DragSession{}, false
	}
	return *s, true
}

// Dragging reports whether any gesture is active
func (c *InteractionController) Dragging() bool {
	return len(c.engine.drags) > 0
}
