package ports

import (
	"context"

	"github.com/samejima-ai/minute-board-app/domain/core/entities"
)

// LayoutRuntime is the running layout the board feeds. Implementations must
// serialize Reconcile with their own tick loop.
type LayoutRuntime interface {
	// Reconcile replaces the laid-out entity set with notes, in order
	Reconcile(ctx context.Context, notes []entities.Note) error
}
