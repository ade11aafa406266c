package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	"github.com/samejima-ai/minute-board-app/domain/layout"
	"github.com/samejima-ai/minute-board-app/infrastructure/frameloop"
	"github.com/samejima-ai/minute-board-app/pkg/api"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// defaultKeepAlive is how often an idle frame stream sends a comment line
const defaultKeepAlive = 15 * time.Second

// Layout is the running layout behind the layout endpoints
type Layout interface {
	Latest() (layout.Frame, bool)
	Subscribe() *frameloop.Subscription
	Stats(ctx context.Context) (layout.Stats, error)
	Parameters(ctx context.Context) (layout.Parameters, error)
	UpdateParameters(ctx context.Context, patch func(*layout.Parameters) error) (layout.Parameters, error)
	SetViewport(ctx context.Context, width, height float64) error
	DragStart(ctx context.Context, id valueobjects.NoteID, point valueobjects.Vector) error
	DragMove(ctx context.Context, id valueobjects.NoteID, delta valueobjects.Vector) error
	DragEnd(ctx context.Context, id valueobjects.NoteID) error
}

// LayoutHandler serves frames, parameters and drag gestures
type LayoutHandler struct {
	layout    Layout
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewLayoutHandler creates a new layout handler
func NewLayoutHandler(l Layout, logger *zap.Logger) *LayoutHandler {
	return &LayoutHandler{
		layout:    l,
		logger:    logger,
		keepAlive: defaultKeepAlive,
	}
}

// ViewportRequest carries new viewport dimensions
type ViewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DragStartRequest is the pointer position where a drag begins
type DragStartRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DragMoveRequest is a pointer displacement since the previous move
type DragMoveRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// GetFrame handles GET /layout
func (h *LayoutHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	frame, ok := h.layout.Latest()
	if !ok {
		respondError(w, r, h.logger, pkgerrors.NewNotFound("no frame has been produced yet"))
		return
	}
	api.Success(w, http.StatusOK, frame)
}

// GetStats handles GET /layout/stats
func (h *LayoutHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.layout.Stats(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, stats)
}

// Stream handles GET /layout/stream as server-sent events. Each event is
// one frame; a client that reads slowly skips frames rather than lagging.
func (h *LayoutHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, r, h.logger, pkgerrors.NewInternal("streaming unsupported", nil))
		return
	}

	sub := h.layout.Subscribe()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case frame, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(frame)
			if err != nil {
				h.logger.Error("failed to encode frame", zap.Uint64("tick", frame.Tick), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: frame\nid: %d\ndata: %s\n\n", frame.Tick, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// SetViewport handles PUT /layout/viewport
func (h *LayoutHandler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.layout.SetViewport(r.Context(), req.Width, req.Height); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.GetStats(w, r)
}

// GetParameters handles GET /layout/parameters
func (h *LayoutHandler) GetParameters(w http.ResponseWriter, r *http.Request) {
	params, err := h.layout.Parameters(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, params)
}

// SetParameters handles PUT /layout/parameters. Fields missing from the
// body keep their current values; the merge runs in one loop step so
// concurrent partial updates do not overwrite each other.
func (h *LayoutHandler) SetParameters(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	params, err := h.layout.UpdateParameters(r.Context(), func(p *layout.Parameters) error {
		return decodeBytes(body, p)
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, params)
}

// DragStart handles POST /layout/nodes/{nodeID}/drag/start
func (h *LayoutHandler) DragStart(w http.ResponseWriter, r *http.Request) {
	var req DragStartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.finish(w, r, h.layout.DragStart(r.Context(), nodeID(r), valueobjects.Vector{X: req.X, Y: req.Y}))
}

// DragMove handles POST /layout/nodes/{nodeID}/drag/move
func (h *LayoutHandler) DragMove(w http.ResponseWriter, r *http.Request) {
	var req DragMoveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.finish(w, r, h.layout.DragMove(r.Context(), nodeID(r), valueobjects.Vector{X: req.DX, Y: req.DY}))
}

// DragEnd handles POST /layout/nodes/{nodeID}/drag/end
func (h *LayoutHandler) DragEnd(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.layout.DragEnd(r.Context(), nodeID(r)))
}

func (h *LayoutHandler) finish(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nodeID(r *http.Request) valueobjects.NoteID {
	return valueobjects.NoteID(chi.URLParam(r, "nodeID"))
}
