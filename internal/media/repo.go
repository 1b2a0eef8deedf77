package media

import "context"

// Repo defines persistence operations for media.
type Repo interface {
	Create(ctx context.Context, m Media) error
	Get(ctx context.Context, id string) (Media, error)
}
