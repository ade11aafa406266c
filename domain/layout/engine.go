package layout

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	"github.com/samejima-ai/minute-board-app/domain/services"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// Phase is the lifecycle state of an engine
type Phase string

const (
	// PhaseInitializing means the viewport is unknown or degenerate; no forces run
	PhaseInitializing Phase = "INITIALIZING"
	// PhaseRunning means the engine ticks while it has energy
	PhaseRunning Phase = "RUNNING"
	// PhaseDisposed is terminal
	PhaseDisposed Phase = "DISPOSED"
)

// ErrDisposed is returned by every mutation after Dispose
var ErrDisposed = pkgerrors.NewInternal("layout engine disposed", nil)

// Stats summarises engine state for health and metrics endpoints
type Stats struct {
	Phase       Phase   `json:"phase"`
	Alpha       float64 `json:"alpha"`
	AlphaTarget float64 `json:"alphaTarget"`
	Nodes       int     `json:"nodes"`
	Links       int     `json:"links"`
	Pending     int     `json:"pending"`
	Dragging    int     `json:"dragging"`
	Ticks       uint64  `json:"ticks"`
}

// Option configures an Engine
type Option func(*Engine)

// WithSeed makes initial placement and jiggle reproducible
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRandSource injects the random source used for placement
func WithRandSource(src rand.Source) Option {
	return func(e *Engine) {
		e.rng = rand.New(src)
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFrameFunc registers the position output callback
func WithFrameFunc(fn FrameFunc) Option {
	return func(e *Engine) {
		e.onFrame = fn
	}
}

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithLinkBuilder replaces the default similarity graph builder
func WithLinkBuilder(b *services.LinkBuilder) Option {
	return func(e *Engine) {
		if b != nil {
			e.linkBuilder = b
		}
	}
}

// WithBoundaryPolicy replaces the default containment policy
func WithBoundaryPolicy(p *services.BoundaryPolicy) Option {
	return func(e *Engine) {
		if p != nil {
			e.boundary = p
		}
	}
}

// Engine is an incremental force-directed layout over a changing note set.
//
// An Engine is not safe for concurrent use. Reconcile, Tick, parameter
// changes and drag gestures must all be issued from one goroutine; the
// frameloop package provides that owner.
type Engine struct {
	params Parameters
	area   valueobjects.SafeArea
	phase  Phase

	nodes []*entities.Node
	index map[valueobjects.NoteID]int
	links []entities.Link
	wired []resolvedLink

	// pending holds the last entity set received while the viewport was
	// unusable; hasPending distinguishes an empty set from none.
	pending    []entities.Note
	hasPending bool
	populated  bool

	alpha       float64
	alphaTarget float64
	ticks       uint64
	drags       map[valueobjects.NoteID]*DragSession

	rng         *rand.Rand
	logger      *zap.Logger
	onFrame     FrameFunc
	recorder    Recorder
	linkBuilder *services.LinkBuilder
	boundary    *services.BoundaryPolicy
	interaction *InteractionController
}

// NewEngine creates an engine. With a usable viewport in params it starts in
// RUNNING, otherwise in INITIALIZING until SetViewport provides one.
func NewEngine(params Parameters, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		phase:       PhaseInitializing,
		index:       make(map[valueobjects.NoteID]int),
		drags:       make(map[valueobjects.NoteID]*DragSession),
		logger:      zap.NewNop(),
		recorder:    nopRecorder{},
		linkBuilder: services.NewLinkBuilder(nil, nil),
		boundary:    services.NewBoundaryPolicy(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.interaction = &InteractionController{engine: e}

	e.applyParameters(params)
	return e, nil
}

// Interaction returns the drag controller bound to this engine
func (e *Engine) Interaction() *InteractionController {
	return e.interaction
}

// Phase returns the lifecycle state
func (e *Engine) Phase() Phase {
	return e.phase
}

// Alpha returns the current energy
func (e *Engine) Alpha() float64 {
	return e.alpha
}

// Parameters returns the active parameters
func (e *Engine) Parameters() Parameters {
	return e.params
}

// SafeArea returns the current containment region; ok is false while
// the engine is not running.
func (e *Engine) SafeArea() (valueobjects.SafeArea, bool) {
	return e.area, e.phase == PhaseRunning
}

// Reconcile diffs notes against the current nodes by id. Invalid entries are
// dropped from this call and reported in a VALIDATION error; the valid rest
// is still applied. A rejected entry whose id is already on the board keeps
// its existing node. Duplicate ids merge with the last occurrence winning.
func (e *Engine) Reconcile(notes []entities.Note) error {
	if e.phase == PhaseDisposed {
		return ErrDisposed
	}

	accepted, rejected := e.normalize(notes)

	if e.phase == PhaseInitializing {
		e.pending = accepted
		e.hasPending = true
		e.logger.Debug("buffered entity set until viewport is known",
			zap.Int("entities", len(accepted)),
			zap.Int("rejected", len(rejected)))
		e.recorder.ObserveReconcile(0, 0, len(rejected))
	} else {
		added, removed := e.apply(accepted)
		e.recorder.ObserveReconcile(added, removed, len(rejected))
	}

	if len(rejected) > 0 {
		e.logger.Warn("rejected entities during reconcile",
			zap.Int("rejected", len(rejected)),
			zap.Int("total", len(notes)),
			zap.Error(errors.Join(rejected...)))
		return pkgerrors.NewValidationWithCause(
			fmt.Sprintf("%d of %d entities rejected", len(rejected), len(notes)),
			errors.Join(rejected...))
	}
	return nil
}

// normalize validates and de-duplicates an incoming entity list
func (e *Engine) normalize(notes []entities.Note) ([]entities.Note, []error) {
	out := make([]entities.Note, 0, len(notes))
	seen := make(map[valueobjects.NoteID]int, len(notes))
	var rejected []error

	for i, n := range notes {
		if err := n.Validate(); err != nil {
			rejected = append(rejected, fmt.Errorf("entity %d: %w", i, err))
			idx, live := e.index[n.ID]
			if n.ID.IsEmpty() || !live {
				continue
			}
			if _, dup := seen[n.ID]; dup {
				continue
			}
			// keep the node that is already on the board
			n = e.nodes[idx].Note
		}

		if pos, dup := seen[n.ID]; dup {
			out[pos] = n.Clone()
			continue
		}
		seen[n.ID] = len(out)
		out = append(out, n.Clone())
	}
	return out, rejected
}

// apply makes the node set equal to notes, rebuilds links and injects energy
func (e *Engine) apply(notes []entities.Note) (added, removed int) {
	nodes := make([]*entities.Node, 0, len(notes))
	index := make(map[valueobjects.NoteID]int, len(notes))

	for _, n := range notes {
		if i, ok := e.index[n.ID]; ok {
			node := e.nodes[i]
			node.ReplaceContent(n)
			nodes = append(nodes, node)
		} else {
			nodes = append(nodes, entities.NewNode(n, e.area.RandomPoint(e.rng)))
			added++
		}
		index[n.ID] = len(nodes) - 1
	}

	for id := range e.index {
		if _, ok := index[id]; !ok {
			removed++
			delete(e.drags, id)
		}
	}
	if len(e.drags) == 0 {
		e.alphaTarget = 0
	}

	e.nodes = nodes
	e.index = index
	e.links = e.linkBuilder.Build(notes)
	e.wired = resolveLinks(e.links, e.index)

	switch {
	case !e.populated && len(nodes) > 0:
		e.alpha = InitialAlpha
		e.populated = true
	default:
		e.alpha = RestartAlpha
	}

	e.logger.Debug("reconciled",
		zap.Int("nodes", len(e.nodes)),
		zap.Int("links", len(e.links)),
		zap.Int("added", added),
		zap.Int("removed", removed),
		zap.Float64("alpha", e.alpha))
	return added, removed
}

// SetParameters replaces the live parameters. Force changes apply on the next
// tick; a viewport change may move the engine between phases.
func (e *Engine) SetParameters(params Parameters) error {
	if e.phase == PhaseDisposed {
		return ErrDisposed
	}
	if err := params.Validate(); err != nil {
		return err
	}
	e.applyParameters(params)
	return nil
}

// SetViewport updates only the viewport dimensions
func (e *Engine) SetViewport(width, height float64) error {
	return e.SetParameters(e.params.WithViewport(width, height))
}

func (e *Engine) applyParameters(params Parameters) {
	previous := e.params
	e.params = params

	area, ok := params.SafeArea()
	if !ok {
		if e.phase == PhaseRunning {
			e.logger.Debug("viewport became degenerate, pausing layout",
				zap.Float64("width", params.ViewportWidth),
				zap.Float64("height", params.ViewportHeight))
		}
		e.phase = PhaseInitializing
		return
	}

	resized := area != e.area
	e.area = area
	if e.phase == PhaseInitializing {
		e.phase = PhaseRunning
		e.logger.Debug("layout running",
			zap.Float64("width", params.ViewportWidth),
			zap.Float64("height", params.ViewportHeight))
	}

	if e.hasPending {
		pending := e.pending
		e.pending, e.hasPending = nil, false
		added, removed := e.apply(pending)
		e.recorder.ObserveReconcile(added, removed, 0)
		return
	}

	if len(e.nodes) > 0 && (resized || previous != params) {
		e.reheat(RestartAlpha)
	}
}

func (e *Engine) reheat(alpha float64) {
	if e.alpha < alpha {
		e.alpha = alpha
	}
}

// Tick advances the simulation by one frame and emits it. It returns false,
// without emitting, when the engine is not running or has no energy left.
func (e *Engine) Tick() bool {
	if e.phase != PhaseRunning || !e.active() {
		return false
	}
	start := time.Now()

	for _, node := range e.nodes {
		if !node.IsFinite() {
			e.resetNode(node)
		}
	}

	applyLinkForce(e.nodes, e.wired, e.params.LinkStrengthMultiplier, e.alpha, e.rng)
	applyManyBody(e.nodes, BaseRepulsion*e.params.RepulsionMultiplier, e.alpha, e.rng)
	applyCenter(e.nodes, e.area.Center(), e.params.CenterGravityStrength)
	applyCollision(e.nodes, e.params.CollisionRadius, e.rng)

	for _, node := range e.nodes {
		if node.Pinned() {
			node.Position = *node.Pin
			node.Velocity = valueobjects.Vector{}
			continue
		}
		node.Velocity = node.Velocity.Scale(1 - VelocityDecay)
		node.Position, node.Velocity = e.boundary.Step(e.area, node.Position, node.Velocity)

		if !node.IsFinite() {
			e.resetNode(node)
		}
	}

	e.alpha += (e.alphaTarget - e.alpha) * AlphaDecay
	e.ticks++

	if e.onFrame != nil {
		e.onFrame(e.Snapshot())
	}
	e.recorder.ObserveTick(time.Since(start), len(e.nodes), len(e.links), e.alpha)
	return e.active()
}

// resetNode moves a node with a non-finite coordinate to a fresh safe point
func (e *Engine) resetNode(node *entities.Node) {
	e.logger.Warn("non-finite node position, resetting",
		zap.String("id", node.ID().String()),
		zap.Uint64("tick", e.ticks))
	node.Unpin()
	node.Position = e.area.RandomPoint(e.rng)
	node.Velocity = valueobjects.Vector{}
	e.recorder.ObserveNodeReset()
}

// active reports whether ticking should continue
func (e *Engine) active() bool {
	return e.alpha >= AlphaMin || e.alphaTarget >= AlphaMin
}

// Snapshot returns the current frame without advancing the simulation
func (e *Engine) Snapshot() Frame {
	return buildFrame(e.ticks, e.alpha, e.nodes, e.index, e.links)
}

// Stats returns counters describing the engine
func (e *Engine) Stats() Stats {
	return Stats{
		Phase:       e.phase,
		Alpha:       e.alpha,
		AlphaTarget: e.alphaTarget,
		Nodes:       len(e.nodes),
		Links:       len(e.links),
		Pending:     len(e.pending),
		Dragging:    len(e.drags),
		Ticks:       e.ticks,
	}
}

// Nodes returns detached copies of all nodes in entity order
func (e *Engine) Nodes() []entities.Node {
	out := make([]entities.Node, len(e.nodes))
	for i, n := range e.nodes {
		out[i] = n.Snapshot()
	}
	return out
}

// Node returns a detached copy of one node
func (e *Engine) Node(id valueobjects.NoteID) (entities.Node, bool) {
	i, ok := e.index[id]
	if !ok {
		return entities.Node{}, false
	}
	return e.nodes[i].Snapshot(), true
}

// Links returns a copy of the current link set
func (e *Engine) Links() []entities.Link {
	return append([]entities.Link(nil), e.links...)
}

// Dispose halts the engine and releases all node and link state
func (e *Engine) Dispose() {
	if e.phase == PhaseDisposed {
		return
	}
	e.phase = PhaseDisposed
	e.nodes = nil
	e.index = make(map[valueobjects.NoteID]int)
	e.links = nil
	e.wired = nil
	e.pending, e.hasPending = nil, false
	e.drags = make(map[valueobjects.NoteID]*DragSession)
	e.alpha, e.alphaTarget = 0, 0
	e.onFrame = nil
	e.logger.Debug("layout engine disposed", zap.Uint64("ticks", e.ticks))
}

func (e *Engine) lookup(id valueobjects.NoteID) (*entities.Node, error) {
	if e.phase == PhaseDisposed {
		return nil, ErrDisposed
	}
	i, ok := e.index[id]
	if !ok {
		return nil, pkgerrors.NewNotFound("node " + id.String() + " not found")
	}
	return e.nodes[i], nil
}
