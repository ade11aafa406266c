package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/samejima-ai/minute-board-app/application/commands"
	"github.com/samejima-ai/minute-board-app/application/services"
	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	"github.com/samejima-ai/minute-board-app/pkg/api"
)

// Board is the note feed behind the notes endpoints
type Board interface {
	AddNote(ctx context.Context, cmd commands.AddNoteCommand) (*services.AddNoteResult, error)
	ReplaceNotes(ctx context.Context, notes []entities.Note) error
	RemoveNote(ctx context.Context, id valueobjects.NoteID) error
	SetCapacity(ctx context.Context, maxNotes int) error
	Capacity() int
	Notes() []entities.Note
	Note(id valueobjects.NoteID) (entities.Note, error)
}

// NoteHandler handles note-related HTTP requests
type NoteHandler struct {
	board  Board
	logger *zap.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(board Board, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{
		board:  board,
		logger: logger,
	}
}

// NoteListResponse is the board content, oldest first
type NoteListResponse struct {
	Notes    []entities.Note `json:"notes"`
	Count    int             `json:"count"`
	Capacity int             `json:"capacity"`
}

// ReplaceNotesRequest replaces the whole board
type ReplaceNotesRequest struct {
	Notes []entities.Note `json:"notes"`
}

// CapacityRequest changes the board cap
type CapacityRequest struct {
	MaxNotes int `json:"maxNotes"`
}

// ListNotes handles GET /notes
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.list())
}

// GetNote handles GET /notes/{noteID}
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.board.Note(valueobjects.NoteID(chi.URLParam(r, "noteID")))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, note)
}

// AddNote handles POST /notes. A duplicate answers 200 with the existing
// note instead of 201.
func (h *NoteHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var cmd commands.AddNoteCommand
	if err := decodeJSON(r, &cmd); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.board.AddNote(r.Context(), cmd)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	api.Success(w, status, result)
}

// ReplaceNotes handles PUT /notes
func (h *NoteHandler) ReplaceNotes(w http.ResponseWriter, r *http.Request) {
	var req ReplaceNotesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.board.ReplaceNotes(r.Context(), req.Notes); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, h.list())
}

// DeleteNote handles DELETE /notes/{noteID}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.board.RemoveNote(r.Context(), valueobjects.NoteID(chi.URLParam(r, "noteID"))); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCapacity handles GET /board/capacity
func (h *NoteHandler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, CapacityRequest{MaxNotes: h.board.Capacity()})
}

// SetCapacity handles PUT /board/capacity
func (h *NoteHandler) SetCapacity(w http.ResponseWriter, r *http.Request) {
	var req CapacityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.board.SetCapacity(r.Context(), req.MaxNotes); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, h.list())
}

func (h *NoteHandler) list() NoteListResponse {
	notes := h.board.Notes()
	return NoteListResponse{Notes: notes, Count: len(notes), Capacity: h.board.Capacity()}
}
