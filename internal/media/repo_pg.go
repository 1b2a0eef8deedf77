package media

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a media row.
func (r *PGRepo) Create(ctx context.Context, m Media) error {
	const query = `
INSERT INTO media (id, url, filename, original_name, mime_type, size, user_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		m.ID,
		m.URL,
		m.FileName,
		m.OriginalName,
		m.MimeType,
		m.Size,
		m.UserID,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

// Get returns a media row by id.
func (r *PGRepo) Get(ctx context.Context, id string) (Media, error) {
	const query = `
SELECT id, url, filename, original_name, mime_type, size, user_id, created_at, updated_at
FROM media
WHERE id = $1 AND deleted_at IS NULL`
	var m Media
	if err := sqlscan.Get(ctx, r.DB, &m, query, id); err != nil {
		if sqlscan.NotFound(err) {
			return Media{}, ErrNotFound
		}
		return Media{}, err
	}
	return m, nil
}

var _ Repo = (*PGRepo)(nil)
