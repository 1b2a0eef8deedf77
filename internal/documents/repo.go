package documents

import (
	"context"
	"time"
)

// Repo defines persistence operations for documents and their children.
// Soft-deleted rows are invisible to every read.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	Get(ctx context.Context, id string) (Document, error)
	List(ctx context.Context, f ListFilter) ([]Document, int, error)
	Update(ctx context.Context, id string, p Patch, now time.Time) (Document, error)
	SoftDelete(ctx context.Context, id string, now time.Time) error

	// Complete writes the children and moves the document PENDING -> COMPLETED
	// as one unit; on error nothing is written.
	Complete(ctx context.Context, id string, c Completion, now time.Time) error
	// MarkError moves the document PENDING -> ERROR leaving analysis fields untouched.
	MarkError(ctx context.Context, id string, now time.Time) error

	ListKeyPoints(ctx context.Context, documentID string) ([]KeyPoint, error)
	ListActionSuggestions(ctx context.Context, documentID string) ([]ActionSuggestion, error)
	GetKeyPoint(ctx context.Context, id string) (KeyPoint, error)
	GetActionSuggestion(ctx context.Context, id string) (ActionSuggestion, error)
	UpdateKeyPoint(ctx context.Context, id, title string, now time.Time) (KeyPoint, error)
	DeleteKeyPoint(ctx context.Context, id string, now time.Time) error
	UpdateActionSuggestion(ctx context.Context, id string, p ActionSuggestionPatch, now time.Time) (ActionSuggestion, error)
	DeleteActionSuggestion(ctx context.Context, id string, now time.Time) error
}
