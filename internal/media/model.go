package media

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no media row matches.
var ErrNotFound = errors.New("not found")

// Media records a stored upload. It is created once, before its Document,
// and never modified by the ingestion pipeline.
type Media struct {
	ID           string    `db:"id"`
	URL          string    `db:"url"`
	FileName     string    `db:"filename"`
	OriginalName string    `db:"original_name"`
	MimeType     string    `db:"mime_type"`
	Size         int64     `db:"size"`
	UserID       string    `db:"user_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
