package layout

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

func viewportParams() Parameters {
	return DefaultParameters().WithViewport(1280, 800)
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(viewportParams(), append([]Option{WithSeed(42)}, opts...)...)
	require.NoError(t, err)
	return e
}

func mkNote(id string, cat valueobjects.Category, keywords ...string) entities.Note {
	return entities.Note{
		ID:       valueobjects.NoteID(id),
		Category: cat,
		Summary:  "summary " + id,
		Keywords: keywords,
	}
}

func nodeIDs(e *Engine) []string {
	ids := make([]string, 0)
	for _, n := range e.Nodes() {
		ids = append(ids, n.ID().String())
	}
	return ids
}

func settle(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 5000; i++ {
		if !e.Tick() {
			return
		}
	}
	t.Fatal("engine did not settle")
}

type countingRecorder struct {
	ticks, resets int
	added, removed, rejected int
}

func (r *countingRecorder) ObserveTick(time.Duration, int, int, float64) { r.ticks++ }
func (r *countingRecorder) ObserveReconcile(added, removed, rejected int) {
	r.added += added
	r.removed += removed
	r.rejected += rejected
}
func (r *countingRecorder) ObserveNodeReset() { r.resets++ }

func TestNewEngine_Phase(t *testing.T) {
	e, err := NewEngine(DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, PhaseInitializing, e.Phase())
	assert.False(t, e.Tick())

	e = newTestEngine(t)
	assert.Equal(t, PhaseRunning, e.Phase())

	_, err = NewEngine(Parameters{CollisionRadius: -1})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestEngine_ReconcileKeepsBijection(t *testing.T) {
	e := newTestEngine(t)

	steps := [][]string{
		{"a"},
		{"a", "b"},
		{"a", "b", "c"},
		{"b", "c"},
		{"d", "c", "b"},
		{},
		{"e"},
	}

	for i, ids := range steps {
		notes := make([]entities.Note, len(ids))
		for j, id := range ids {
			notes[j] = mkNote(id, valueobjects.CategoryInfo, "shared")
		}
		require.NoError(t, e.Reconcile(notes), "step %d", i)
		assert.Equal(t, ids, nodeIDs(e), "step %d", i)

		live := make(map[valueobjects.NoteID]bool)
		for _, id := range ids {
			live[valueobjects.NoteID(id)] = true
		}
		for _, l := range e.Links() {
			assert.True(t, live[l.Source] && live[l.Target], "step %d: dangling link %+v", i, l)
		}
		e.Tick()
	}
}

func TestEngine_NewNodesStartInsideSafeArea(t *testing.T) {
	e := newTestEngine(t)
	area, ok := e.SafeArea()
	require.True(t, ok)

	notes := make([]entities.Note, 40)
	for i := range notes {
		notes[i] = mkNote(fmt.Sprintf("n%d", i), valueobjects.CategoryIssue)
	}
	require.NoError(t, e.Reconcile(notes))

	distinct := make(map[valueobjects.Vector]bool)
	for _, n := range e.Nodes() {
		assert.True(t, area.Contains(n.Position), "%s at %+v", n.ID(), n.Position)
		distinct[n.Position] = true
	}
	assert.Len(t, distinct, 40, "placements should not pile up")
}

func TestEngine_ReconcileMergesContentInPlace(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo), mkNote("b", valueobjects.CategoryInfo)}))
	for i := 0; i < 10; i++ {
		e.Tick()
	}
	before, _ := e.Node("a")

	updated := mkNote("a", valueobjects.CategoryDecision, "budget")
	updated.Summary = "rewritten"
	require.NoError(t, e.Reconcile([]entities.Note{updated, mkNote("b", valueobjects.CategoryInfo)}))

	after, ok := e.Node("a")
	require.True(t, ok)
	assert.Equal(t, before.Position, after.Position)
	assert.Equal(t, before.Velocity, after.Velocity)
	assert.Equal(t, "rewritten", after.Note.Summary)
	assert.Equal(t, valueobjects.CategoryDecision, after.Note.Category)
}

func TestEngine_RemovingNodeDropsItsLinks(t *testing.T) {
	e := newTestEngine(t)
	notes := []entities.Note{
		mkNote("a", valueobjects.CategoryProposal, "budget", "q3"),
		mkNote("b", valueobjects.CategoryProposal, "budget", "q4"),
		mkNote("c", valueobjects.CategoryInfo, "lunch"),
	}
	require.NoError(t, e.Reconcile(notes))
	require.Len(t, e.Links(), 1)

	require.NoError(t, e.Reconcile(notes[1:]))
	assert.Empty(t, e.Links())
	assert.Empty(t, e.Snapshot().Links)
}

func TestEngine_DuplicateIDsLastOccurrenceWins(t *testing.T) {
	e := newTestEngine(t)
	first := mkNote("a", valueobjects.CategoryInfo)
	last := mkNote("a", valueobjects.CategoryIssue)
	last.Summary = "latest"

	err := e.Reconcile([]entities.Note{first, mkNote("b", valueobjects.CategoryInfo), last})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, nodeIDs(e))
	a, _ := e.Node("a")
	assert.Equal(t, "latest", a.Note.Summary)
	assert.Equal(t, valueobjects.CategoryIssue, a.Note.Category)
}

func TestEngine_InvalidEntitiesAreRejected(t *testing.T) {
	rec := &countingRecorder{}
	e := newTestEngine(t, WithRecorder(rec))
	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo), mkNote("b", valueobjects.CategoryInfo)}))
	bBefore, _ := e.Node("b")

	badB := mkNote("b", "NOPE")
	err := e.Reconcile([]entities.Note{
		mkNote("a", valueobjects.CategoryInfo),
		{Category: valueobjects.CategoryInfo, Summary: "no id"},
		badB,
		mkNote("c", valueobjects.CategoryInfo),
	})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "2 of 4")
	assert.Equal(t, 2, rec.rejected)

	assert.Equal(t, []string{"a", "b", "c"}, nodeIDs(e))
	bAfter, _ := e.Node("b")
	assert.Equal(t, bBefore.Note, bAfter.Note, "rejected update must not touch the live node")
	assert.Equal(t, bBefore.Position, bAfter.Position)
}

func TestEngine_BuffersWhileViewportUnknown(t *testing.T) {
	e, err := NewEngine(DefaultParameters(), WithSeed(1))
	require.NoError(t, err)

	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo)}))
	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo), mkNote("b", valueobjects.CategoryInfo)}))
	assert.Empty(t, e.Nodes())
	assert.Equal(t, 2, e.Stats().Pending)
	assert.False(t, e.Tick())

	require.NoError(t, e.SetViewport(1280, 800))
	assert.Equal(t, PhaseRunning, e.Phase())
	assert.Equal(t, []string{"a", "b"}, nodeIDs(e))
	assert.Equal(t, InitialAlpha, e.Alpha())
	assert.Zero(t, e.Stats().Pending)
}

func TestEngine_DegenerateViewportPausesAndResumes(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo), mkNote("b", valueobjects.CategoryInfo)}))

	require.NoError(t, e.SetViewport(0, 800))
	assert.Equal(t, PhaseInitializing, e.Phase())
	assert.False(t, e.Tick())

	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo), mkNote("b", valueobjects.CategoryInfo), mkNote("c", valueobjects.CategoryInfo)}))
	assert.Equal(t, []string{"a", "b"}, nodeIDs(e), "no changes applied while paused")

	require.NoError(t, e.SetViewport(1024, 768))
	assert.Equal(t, PhaseRunning, e.Phase())
	assert.Equal(t, []string{"a", "b", "c"}, nodeIDs(e))
}

func TestEngine_NegativeViewportIsInvalid(t *testing.T) {
	e := newTestEngine(t)
	err := e.SetViewport(-1, 800)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, PhaseRunning, e.Phase())
}

func TestEngine_EnergyPolicy(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Reconcile(nil))
	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo)}))
	assert.Equal(t, InitialAlpha, e.Alpha(), "first population starts hot")

	settle(t, e)
	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo), mkNote("b", valueobjects.CategoryInfo)}))
	assert.Equal(t, RestartAlpha, e.Alpha())

	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo)}))
	assert.Equal(t, RestartAlpha, e.Alpha())
}

func TestEngine_IdempotentReconcileDoesNotRelocate(t *testing.T) {
	e := newTestEngine(t)
	notes := []entities.Note{
		mkNote("a", valueobjects.CategoryProposal, "x"),
		mkNote("b", valueobjects.CategoryProposal, "x"),
		mkNote("c", valueobjects.CategoryIssue, "y"),
	}
	require.NoError(t, e.Reconcile(notes))
	settle(t, e)
	before := e.Nodes()
	linksBefore := e.Links()

	// reference: the same settled layout, reheated by the same amount
	// without any reconciliation
	ref := newTestEngine(t)
	require.NoError(t, ref.Reconcile(notes))
	settle(t, ref)
	require.Equal(t, before, ref.Nodes())

	require.NoError(t, e.Reconcile(notes))
	assert.Equal(t, before, e.Nodes(), "reconcile itself moves nothing")
	assert.Equal(t, linksBefore, e.Links())

	ref.reheat(e.Alpha())
	require.Equal(t, ref.Alpha(), e.Alpha())
	settle(t, e)
	settle(t, ref)

	area, _ := e.SafeArea()
	after := e.Nodes()
	expected := ref.Nodes()
	require.Len(t, after, len(before))
	for i := range after {
		assert.Equal(t, before[i].ID(), after[i].ID())
		assert.InDelta(t, expected[i].Position.X, after[i].Position.X, 1e-9, "node %s", after[i].ID())
		assert.InDelta(t, expected[i].Position.Y, after[i].Position.Y, 1e-9, "node %s", after[i].ID())
		assert.LessOrEqual(t, before[i].Position.DistanceTo(after[i].Position), area.Width(),
			"node %s was relocated", after[i].ID())
		assert.True(t, area.Contains(after[i].Position))
	}
}

func TestEngine_CenterGravityConverges(t *testing.T) {
	params := viewportParams()
	params.LinkStrengthMultiplier = 0
	params.RepulsionMultiplier = 0
	params.CollisionRadius = 0

	e, err := NewEngine(params, WithSeed(9))
	require.NoError(t, err)
	require.NoError(t, e.Reconcile([]entities.Note{mkNote("solo", valueobjects.CategoryInfo)}))
	settle(t, e)

	area, _ := e.SafeArea()
	n, _ := e.Node("solo")
	assert.InDelta(t, area.Center().X, n.Position.X, 1e-3)
	assert.InDelta(t, area.Center().Y, n.Position.Y, 1e-3)
}

func TestEngine_BoundaryInvariantHoldsEveryTick(t *testing.T) {
	var frames int
	var e *Engine
	e = newTestEngine(t, WithFrameFunc(func(f Frame) {
		frames++
		area, _ := e.SafeArea()
		for _, n := range f.Nodes {
			if !n.Pinned {
				assert.True(t, area.Contains(valueobjects.Vector{X: n.X, Y: n.Y}), "tick %d: %s at (%v,%v)", f.Tick, n.ID, n.X, n.Y)
			}
		}
	}))

	notes := make([]entities.Note, 30)
	for i := range notes {
		notes[i] = mkNote(fmt.Sprintf("n%d", i), valueobjects.Categories()[i%4], fmt.Sprintf("k%d", i%5), "common")
	}
	require.NoError(t, e.Reconcile(notes))

	for i := 0; i < 150; i++ {
		e.Tick()
	}
	require.NoError(t, e.SetViewport(700, 500))
	for i := 0; i < 150; i++ {
		e.Tick()
	}
	assert.Equal(t, 300, frames)
}

func TestEngine_ResizeReheats(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo)}))
	settle(t, e)
	require.Less(t, e.Alpha(), AlphaMin)

	require.NoError(t, e.SetViewport(1920, 1080))
	assert.Equal(t, RestartAlpha, e.Alpha())
	assert.True(t, e.Tick())
}

func TestEngine_NonFiniteNodeIsReset(t *testing.T) {
	rec := &countingRecorder{}
	e := newTestEngine(t, WithRecorder(rec))
	require.NoError(t, e.Reconcile([]entities.Note{
		mkNote("a", valueobjects.CategoryInfo),
		mkNote("b", valueobjects.CategoryInfo),
		mkNote("c", valueobjects.CategoryInfo),
	}))

	e.nodes[e.index["b"]].Position.X = math.NaN()
	e.nodes[e.index["c"]].Velocity.Y = math.Inf(1)
	e.Tick()

	assert.Equal(t, 2, rec.resets)
	area, _ := e.SafeArea()
	for _, n := range e.Snapshot().Nodes {
		assert.False(t, math.IsNaN(n.X) || math.IsNaN(n.Y), n.ID)
		assert.True(t, area.Contains(valueobjects.Vector{X: n.X, Y: n.Y}), n.ID)
	}
}

func TestEngine_LiveParameters(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo), mkNote("b", valueobjects.CategoryInfo)}))
	settle(t, e)

	params := e.Parameters()
	params.RepulsionMultiplier = 2
	require.NoError(t, e.SetParameters(params))
	assert.Equal(t, 2.0, e.Parameters().RepulsionMultiplier)
	assert.Equal(t, RestartAlpha, e.Alpha())
	assert.Equal(t, []string{"a", "b"}, nodeIDs(e))

	params.CenterGravityStrength = math.NaN()
	err := e.SetParameters(params)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, 0.03, e.Parameters().CenterGravityStrength)
}

func TestEngine_SeededRunsAreReproducible(t *testing.T) {
	run := func() Frame {
		e := newTestEngine(t)
		require.NoError(t, e.Reconcile([]entities.Note{
			mkNote("a", valueobjects.CategoryProposal, "budget"),
			mkNote("b", valueobjects.CategoryProposal, "budget"),
			mkNote("c", valueobjects.CategoryIssue, "hiring"),
		}))
		for i := 0; i < 50; i++ {
			e.Tick()
		}
		return e.Snapshot()
	}

	assert.Equal(t, run(), run())
}

func TestEngine_SnapshotCarriesLinkEndpoints(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Reconcile([]entities.Note{
		mkNote("a", valueobjects.CategoryProposal, "budget", "q3"),
		mkNote("b", valueobjects.CategoryProposal, "budget", "q4"),
	}))

	frame := e.Snapshot()
	require.Len(t, frame.Nodes, 2)
	require.Len(t, frame.Links, 1)

	byID := map[string]NodeFrame{}
	for _, n := range frame.Nodes {
		byID[n.ID] = n
	}
	l := frame.Links[0]
	assert.Equal(t, byID[l.Source].X, l.X1)
	assert.Equal(t, byID[l.Source].Y, l.Y1)
	assert.Equal(t, byID[l.Target].X, l.X2)
	assert.Equal(t, byID[l.Target].Y, l.Y2)
	assert.InDelta(t, 0.5333, l.Weight, 1e-4)
}

func TestEngine_FramesAreEmittedInOrder(t *testing.T) {
	var ticks []uint64
	e := newTestEngine(t, WithFrameFunc(func(f Frame) { ticks = append(ticks, f.Tick) }))
	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo)}))

	for i := 0; i < 5; i++ {
		e.Tick()
	}
	assert.True(t, sort.SliceIsSorted(ticks, func(i, j int) bool { return ticks[i] < ticks[j] }))
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, ticks)
}

func TestEngine_Dispose(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Reconcile([]entities.Note{mkNote("a", valueobjects.CategoryInfo)}))

	e.Dispose()
	e.Dispose()

	assert.Equal(t, PhaseDisposed, e.Phase())
	assert.False(t, e.Tick())
	assert.Empty(t, e.Nodes())
	assert.True(t, errors.Is(e.Reconcile(nil), ErrDisposed))
	assert.True(t, errors.Is(e.SetViewport(10, 10), ErrDisposed))
	assert.True(t, errors.Is(e.Interaction().DragStart("a", valueobjects.Vector{}), ErrDisposed))
}
