package params

import (
	"context"
	"time"
)

type Repo interface {
	List(ctx context.Context, f ListFilter) ([]Parameter, int, error)
	GetByKey(ctx context.Context, key Key) (Parameter, error)
	GetByID(ctx context.Context, id string) (Parameter, error)
	// CreateIfAbsent inserts p unless a row with the same key exists and
	// reports whether it inserted.
	CreateIfAbsent(ctx context.Context, p Parameter) (bool, error)
	UpdateValue(ctx context.Context, id, value string, now time.Time) (Parameter, error)
}
