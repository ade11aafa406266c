package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

func draggableEngine(t *testing.T) *Engine {
	t.Helper()
	e := newTestEngine(t)
	require.NoError(t, e.Reconcile([]entities.Note{
		mkNote("a", valueobjects.CategoryProposal, "budget"),
		mkNote("b", valueobjects.CategoryProposal, "budget"),
	}))
	return e
}

func TestInteraction_DragLifecycle(t *testing.T) {
	e := draggableEngine(t)
	ctl := e.Interaction()
	area, _ := e.SafeArea()

	start, _ := e.Node("a")
	require.NoError(t, ctl.DragStart("a", start.Position))

	n, _ := e.Node("a")
	assert.False(t, n.Pinned(), "drag start does not pin")
	assert.True(t, ctl.Dragging())

	target := area.Center().Add(valueobjects.Vector{X: 100, Y: 0})
	require.NoError(t, ctl.DragMove("a", target.Sub(start.Position)))

	n, _ = e.Node("a")
	require.True(t, n.Pinned())
	assert.InDelta(t, target.X, n.Position.X, 1e-9)
	assert.InDelta(t, target.Y, n.Position.Y, 1e-9)

	for i := 0; i < 5; i++ {
		e.Tick()
	}
	held, _ := e.Node("a")
	assert.Equal(t, n.Position, held.Position, "ticks must not move a pinned node")

	require.NoError(t, ctl.DragMove("a", valueobjects.Vector{X: -20, Y: 15}))
	moved, _ := e.Node("a")
	assert.InDelta(t, held.Position.X-20, moved.Position.X, 1e-9)
	assert.InDelta(t, held.Position.Y+15, moved.Position.Y, 1e-9)

	session, ok := ctl.Session("a")
	require.True(t, ok)
	assert.Equal(t, start.Position, session.Grab)
	assert.Equal(t, start.Position, session.Origin)

	require.NoError(t, ctl.DragEnd("a"))
	released, _ := e.Node("a")
	assert.False(t, released.Pinned())
	assert.False(t, ctl.Dragging())
	assert.Equal(t, 0.0, e.Stats().AlphaTarget)

	require.True(t, e.Tick())
	after, _ := e.Node("a")
	assert.NotEqual(t, released.Position, after.Position, "released node rejoins the simulation")
}

func TestInteraction_DragHoldsEnergy(t *testing.T) {
	e := draggableEngine(t)
	settle(t, e)
	require.False(t, e.Tick())

	require.NoError(t, e.Interaction().DragStart("b", valueobjects.Vector{X: 1, Y: 1}))
	assert.Equal(t, DragAlphaTarget, e.Stats().AlphaTarget)
	for i := 0; i < 400; i++ {
		require.True(t, e.Tick(), "tick %d", i)
	}
	assert.InDelta(t, DragAlphaTarget, e.Alpha(), 0.01)
}

func TestInteraction_ReleaseAfterSettleReturnsToSafeArea(t *testing.T) {
	// Arrange
	e := draggableEngine(t)
	settle(t, e)
	require.False(t, e.Tick())
	ctl := e.Interaction()
	area, _ := e.SafeArea()

	// Act: a whole gesture between two frames
	require.NoError(t, ctl.DragStart("a", valueobjects.Vector{}))
	require.NoError(t, ctl.DragMove("a", valueobjects.Vector{X: 5000, Y: 5000}))
	require.NoError(t, ctl.DragEnd("a"))

	// Assert
	assert.Equal(t, RestartAlpha, e.Alpha())
	require.True(t, e.Tick(), "release must re-inject energy")
	n, _ := e.Node("a")
	assert.False(t, n.Pinned())
	assert.True(t, area.Contains(n.Position), "released node at %+v outside %+v", n.Position, area)
	settle(t, e)
	n, _ = e.Node("a")
	assert.True(t, area.Contains(n.Position))
}

func TestInteraction_Errors(t *testing.T) {
	e := draggableEngine(t)
	ctl := e.Interaction()

	tests := []struct {
		name  string
		run   func() error
		check func(error) bool
	}{
		{
			name:  "move without start",
			run:   func() error { return ctl.DragMove("a", valueobjects.Vector{X: 1}) },
			check: pkgerrors.IsConflict,
		},
		{
			name:  "start on unknown node",
			run:   func() error { return ctl.DragStart("zzz", valueobjects.Vector{}) },
			check: pkgerrors.IsNotFound,
		},
		{
			name:  "end on unknown node",
			run:   func() error { return ctl.DragEnd("zzz") },
			check: pkgerrors.IsNotFound,
		},
		{
			name: "non-finite delta",
			run: func() error {
				if err := ctl.DragStart("b", valueobjects.Vector{}); err != nil {
					return err
				}
				return ctl.DragMove("b", valueobjects.Vector{X: posInf()})
			},
			check: pkgerrors.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}
}

func TestInteraction_EndWithoutStartOnlyUnpins(t *testing.T) {
	e := draggableEngine(t)
	assert.NoError(t, e.Interaction().DragEnd("a"))
	n, _ := e.Node("a")
	assert.False(t, n.Pinned())
}

func TestInteraction_EvictedNodeEndsItsDrag(t *testing.T) {
	e := draggableEngine(t)
	ctl := e.Interaction()
	require.NoError(t, ctl.DragStart("a", valueobjects.Vector{}))
	require.NoError(t, ctl.DragMove("a", valueobjects.Vector{X: 5}))

	require.NoError(t, e.Reconcile([]entities.Note{mkNote("b", valueobjects.CategoryProposal, "budget")}))

	assert.False(t, ctl.Dragging())
	assert.Zero(t, e.Stats().Dragging)
	assert.Equal(t, 0.0, e.Stats().AlphaTarget)
	assert.True(t, pkgerrors.IsNotFound(ctl.DragMove("a", valueobjects.Vector{X: 1})))
}

func TestInteraction_PinSurvivesContentUpdate(t *testing.T) {
	e := draggableEngine(t)
	ctl := e.Interaction()
	require.NoError(t, ctl.DragStart("a", valueobjects.Vector{}))
	require.NoError(t, ctl.DragMove("a", valueobjects.Vector{X: 3, Y: 4}))
	pinned, _ := e.Node("a")

	updated := mkNote("a", valueobjects.CategoryDecision, "budget")
	require.NoError(t, e.Reconcile([]entities.Note{updated, mkNote("b", valueobjects.CategoryProposal, "budget")}))

	after, _ := e.Node("a")
	assert.True(t, after.Pinned())
	assert.Equal(t, pinned.Position, after.Position)
	assert.True(t, ctl.Dragging())
}
