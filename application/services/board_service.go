// Package services contains the application services that feed the layout.
//
// BoardService owns the ordered note list shown on the board. It applies the
// capacity cap (oldest first) and content de-duplication, then hands the full
// list to the layout runtime, which diffs it against what is already placed.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/samejima-ai/minute-board-app/application/commands"
	"github.com/samejima-ai/minute-board-app/application/ports"
	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// DefaultMaxNotes is the board capacity when none is configured
const DefaultMaxNotes = 50

// BoardConfig configures the board
type BoardConfig struct {
	MaxNotes            int
	EnableDeduplication bool
}

// DefaultBoardConfig returns default configuration
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		MaxNotes:            DefaultMaxNotes,
		EnableDeduplication: true,
	}
}

// AddNoteResult describes what AddNote did
type AddNoteResult struct {
	Note      entities.Note         `json:"note"`
	Duplicate bool                  `json:"duplicate"`
	Evicted   []valueobjects.NoteID `json:"evicted,omitempty"`
}

// BoardService keeps the ordered, capped note list and pushes every change
// to the layout. Safe for concurrent use.
type BoardService struct {
	mu     sync.Mutex
	notes  []entities.Note
	config BoardConfig

	layout ports.LayoutRuntime
	logger *zap.Logger
	tracer trace.Tracer
	newID  func() valueobjects.NoteID
}

// NewBoardService creates a new BoardService
func NewBoardService(layout ports.LayoutRuntime, config BoardConfig, logger *zap.Logger) *BoardService {
	if config.MaxNotes <= 0 {
		config.MaxNotes = DefaultMaxNotes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardService{
		config: config,
		layout: layout,
		logger: logger,
		tracer: otel.Tracer("noteboard.application.board_service"),
		newID:  valueobjects.NewNoteID,
	}
}

// AddNote appends a new note, evicting the oldest notes beyond capacity.
// With de-duplication enabled a note whose content matches one already on
// the board is skipped and the existing note is returned.
func (s *BoardService) AddNote(ctx context.Context, cmd commands.AddNoteCommand) (*AddNoteResult, error) {
	ctx, span := s.tracer.Start(ctx, "BoardService.AddNote",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("note.type", cmd.Type),
			attribute.Int("note.keywords", len(cmd.Keywords)),
		),
	)
	defer span.End()

	if err := cmd.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid command")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note := cmd.ToNote(s.newID())
	if s.config.EnableDeduplication {
		for _, existing := range s.notes {
			if existing.SameContent(note) {
				span.AddEvent("duplicate_skipped", trace.WithAttributes(attribute.String("note.id", existing.ID.String())))
				s.logger.Debug("skipping duplicate note", zap.String("existing_id", existing.ID.String()))
				return &AddNoteResult{Note: existing.Clone(), Duplicate: true}, nil
			}
		}
	}

	next := append(cloneNotes(s.notes), note)
	next, evicted := capNotes(next, s.config.MaxNotes)
	if err := s.commit(ctx, next); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "layout reconcile failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("note.id", note.ID.String()),
		attribute.Int("board.size", len(next)),
		attribute.Int("board.evicted", len(evicted)),
	)
	s.logger.Info("note added",
		zap.String("id", note.ID.String()),
		zap.String("type", note.Category.String()),
		zap.Int("board_size", len(next)),
		zap.Int("evicted", len(evicted)))
	return &AddNoteResult{Note: note.Clone(), Evicted: evicted}, nil
}

// ReplaceNotes swaps the whole board for notes. Every note must be valid;
// duplicate ids keep the first position and the last content. The cap keeps
// the newest notes.
func (s *BoardService) ReplaceNotes(ctx context.Context, notes []entities.Note) error {
	ctx, span := s.tracer.Start(ctx, "BoardService.ReplaceNotes",
		trace.WithAttributes(attribute.Int("notes.count", len(notes))),
	)
	defer span.End()

	var errs []error
	for i, n := range notes {
		if err := n.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("note %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		err := pkgerrors.NewValidationWithCause(fmt.Sprintf("%d invalid notes", len(errs)), errors.Join(errs...))
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid notes")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, evicted := capNotes(mergeDuplicateIDs(notes), s.config.MaxNotes)
	if err := s.commit(ctx, next); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "layout reconcile failed")
		return err
	}
	s.logger.Info("board replaced", zap.Int("board_size", len(next)), zap.Int("evicted", len(evicted)))
	return nil
}

// RemoveNote deletes one note from the board
func (s *BoardService) RemoveNote(ctx context.Context, id valueobjects.NoteID) error {
	ctx, span := s.tracer.Start(ctx, "BoardService.RemoveNote",
		trace.WithAttributes(attribute.String("note.id", id.String())),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]entities.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if n.ID != id {
			next = append(next, n)
		}
	}
	if len(next) == len(s.notes) {
		err := pkgerrors.NewNotFound("note " + id.String() + " not found")
		span.SetStatus(codes.Error, "not found")
		return err
	}
	if err := s.commit(ctx, next); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "layout reconcile failed")
		return err
	}
	s.logger.Info("note removed", zap.String("id", id.String()))
	return nil
}

// SetCapacity changes the cap, evicting immediately when it shrinks
func (s *BoardService) SetCapacity(ctx context.Context, maxNotes int) error {
	if maxNotes < 1 {
		return pkgerrors.NewValidation("capacity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.MaxNotes = maxNotes
	if len(s.notes) <= maxNotes {
		return nil
	}
	next, evicted := capNotes(cloneNotes(s.notes), maxNotes)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.logger.Info("capacity reduced", zap.Int("max_notes", maxNotes), zap.Int("evicted", len(evicted)))
	return nil
}

// Capacity returns the current cap
func (s *BoardService) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.MaxNotes
}

// Notes returns the board in order, oldest first
func (s *BoardService) Notes() []entities.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneNotes(s.notes)
}

// Note returns one note by id
func (s *BoardService) Note(id valueobjects.NoteID) (entities.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notes {
		if n.ID == id {
			return n.Clone(), nil
		}
	}
	return entities.Note{}, pkgerrors.NewNotFound("note " + id.String() + " not found")
}

// commit reconciles the layout and only then adopts next. Caller holds mu.
func (s *BoardService) commit(ctx context.Context, next []entities.Note) error {
	if err := s.layout.Reconcile(ctx, next); err != nil {
		if pkgerrors.IsValidation(err) {
			return err
		}
		s.logger.Error("layout reconcile failed", zap.Error(err))
		return pkgerrors.Wrap(err, "failed to update layout")
	}
	s.notes = next
	return nil
}

// capNotes keeps the newest max notes and returns the evicted ids
func capNotes(notes []entities.Note, max int) ([]entities.Note, []valueobjects.NoteID) {
	if len(notes) <= max {
		return notes, nil
	}
	cut := len(notes) - max
	evicted := make([]valueobjects.NoteID, cut)
	for i := 0; i < cut; i++ {
		evicted[i] = notes[i].ID
	}
	return notes[cut:], evicted
}

func mergeDuplicateIDs(notes []entities.Note) []entities.Note {
	out := make([]entities.Note, 0, len(notes))
	pos := make(map[valueobjects.NoteID]int, len(notes))
	for _, n := range notes {
		if i, ok := pos[n.ID]; ok {
			out[i] = n.Clone()
			continue
		}
		pos[n.ID] = len(out)
		out = append(out, n.Clone())
	}
	return out
}

func cloneNotes(notes []entities.Note) []entities.Note {
	out := make([]entities.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}
