package documents

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"compliance-backend/internal/shared/storage/db"
)

const (
	documentsTable         = "documents"
	keyPointsTable         = "key_points"
	actionSuggestionsTable = "action_suggestions"
)

var documentColumns = []string{
	"id",
	"filename",
	"original_name",
	"category",
	"status",
	"summary",
	"total_pages",
	"processing_time",
	"user_id",
	"media_id",
	"created_at",
	"updated_at",
	"deleted_at",
}

var keyPointColumns = []string{"id", "title", "document_id", "created_at", "updated_at", "deleted_at"}

var actionSuggestionColumns = []string{
	"id",
	"title",
	"label",
	"is_completed",
	"completed_at",
	"document_id",
	"created_at",
	"updated_at",
	"deleted_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    filename,
    original_name,
    category,
    status,
    user_id,
    media_id,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.FileName,
		doc.OriginalName,
		doc.Category,
		doc.Status,
		doc.UserID,
		doc.MediaID,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// Get returns a live document by id.
func (r *PGRepo) Get(ctx context.Context, id string) (Document, error) {
	query, args, err := db.Psql().
		Select(documentColumns...).
		From(documentsTable).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := sqlscan.Get(ctx, r.DB, &doc, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// List returns one page of live documents, newest first, and the total match count.
func (r *PGRepo) List(ctx context.Context, f ListFilter) ([]Document, int, error) {
	where := squirrel.And{squirrel.Eq{"deleted_at": nil}}
	if f.UserID != "" {
		where = append(where, squirrel.Eq{"user_id": f.UserID})
	}
	if f.Category != "" {
		where = append(where, squirrel.Eq{"category": f.Category})
	}
	if f.Status != "" {
		where = append(where, squirrel.Eq{"status": f.Status})
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(search) + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"filename": pattern},
			squirrel.ILike{"original_name": pattern},
		})
	}

	countQuery, countArgs, err := db.Psql().Select("COUNT(*)").From(documentsTable).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	builder := db.Psql().
		Select(documentColumns...).
		From(documentsTable).
		Where(where).
		OrderBy("created_at DESC", "id DESC")
	offset, limit := pageBounds(f)
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	docs := []Document{}
	if err := sqlscan.Select(ctx, r.DB, &docs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	return docs, total, nil
}

// Update applies a patch to a live document.
func (r *PGRepo) Update(ctx context.Context, id string, p Patch, now time.Time) (Document, error) {
	builder := db.Psql().Update(documentsTable).Set("updated_at", now)
	if p.FileName != nil {
		builder = builder.Set("filename", *p.FileName)
	}
	if p.OriginalName != nil {
		builder = builder.Set("original_name", *p.OriginalName)
	}
	if p.Summary != nil {
		builder = builder.Set("summary", *p.Summary)
	}
	if p.Category != nil {
		builder = builder.Set("category", *p.Category)
	}
	if p.TotalPages != nil {
		builder = builder.Set("total_pages", *p.TotalPages)
	}
	where := squirrel.Eq{"id": id, "deleted_at": nil}
	if p.Summary != nil {
		where["status"] = string(StatusCompleted)
	}
	query, args, err := builder.
		Where(where).
		Suffix("RETURNING " + strings.Join(documentColumns, ", ")).
		ToSql()
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := sqlscan.Get(ctx, r.DB, &doc, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			if p.Summary != nil {
				return Document{}, ErrInvalidTransition
			}
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// SoftDelete marks a document deleted.
func (r *PGRepo) SoftDelete(ctx context.Context, id string, now time.Time) error {
	const query = `UPDATE documents SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	return execOne(ctx, r.DB, query, ErrNotFound, id, now)
}

// Complete finalizes the document and inserts its children in one transaction.
func (r *PGRepo) Complete(ctx context.Context, id string, c Completion, now time.Time) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		const update = `
UPDATE documents
SET status = $2, summary = $3, category = $4, total_pages = $5, processing_time = $6, updated_at = $7
WHERE id = $1 AND status = $8 AND deleted_at IS NULL`
		if err := execOne(ctx, tx, update, ErrInvalidTransition,
			id, StatusCompleted, c.Summary, c.Category, c.TotalPages, c.ProcessingTimeMs, now, StatusPending,
		); err != nil {
			return err
		}

		if len(c.KeyPoints) > 0 {
			ins := db.Psql().Insert(keyPointsTable).Columns("id", "title", "document_id", "created_at", "updated_at")
			for _, kp := range c.KeyPoints {
				ins = ins.Values(kp.ID, kp.Title, id, kp.CreatedAt, kp.UpdatedAt)
			}
			query, args, err := ins.ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert key points: %w", err)
			}
		}

		if len(c.ActionSuggestions) > 0 {
			ins := db.Psql().Insert(actionSuggestionsTable).
				Columns("id", "title", "label", "is_completed", "completed_at", "document_id", "created_at", "updated_at")
			for _, a := range c.ActionSuggestions {
				ins = ins.Values(a.ID, a.Title, a.Label, a.IsCompleted, a.CompletedAt, id, a.CreatedAt, a.UpdatedAt)
			}
			query, args, err := ins.ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert action suggestions: %w", err)
			}
		}
		return nil
	})
}

// MarkError moves a PENDING document to ERROR.
func (r *PGRepo) MarkError(ctx context.Context, id string, now time.Time) error {
	const query = `UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4 AND deleted_at IS NULL`
	return execOne(ctx, r.DB, query, ErrInvalidTransition, id, StatusError, now, StatusPending)
}

// ListKeyPoints returns live key points of a document, oldest first.
func (r *PGRepo) ListKeyPoints(ctx context.Context, documentID string) ([]KeyPoint, error) {
	query, args, err := db.Psql().
		Select(keyPointColumns...).
		From(keyPointsTable).
		Where(squirrel.Eq{"document_id": documentID, "deleted_at": nil}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	out := []KeyPoint{}
	if err := sqlscan.Select(ctx, r.DB, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list key points: %w", err)
	}
	return out, nil
}

// ListActionSuggestions returns live action suggestions of a document, oldest first.
func (r *PGRepo) ListActionSuggestions(ctx context.Context, documentID string) ([]ActionSuggestion, error) {
	query, args, err := db.Psql().
		Select(actionSuggestionColumns...).
		From(actionSuggestionsTable).
		Where(squirrel.Eq{"document_id": documentID, "deleted_at": nil}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	out := []ActionSuggestion{}
	if err := sqlscan.Select(ctx, r.DB, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list action suggestions: %w", err)
	}
	return out, nil
}

// GetKeyPoint returns a live key point.
func (r *PGRepo) GetKeyPoint(ctx context.Context, id string) (KeyPoint, error) {
	query, args, err := db.Psql().
		Select(keyPointColumns...).
		From(keyPointsTable).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return KeyPoint{}, err
	}
	var kp KeyPoint
	if err := sqlscan.Get(ctx, r.DB, &kp, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return KeyPoint{}, ErrNotFound
		}
		return KeyPoint{}, err
	}
	return kp, nil
}

// GetActionSuggestion returns a live action suggestion.
func (r *PGRepo) GetActionSuggestion(ctx context.Context, id string) (ActionSuggestion, error) {
	return r.getActionSuggestion(ctx, r.DB, id, false)
}

// UpdateKeyPoint changes a key point title.
func (r *PGRepo) UpdateKeyPoint(ctx context.Context, id, title string, now time.Time) (KeyPoint, error) {
	query := `UPDATE key_points SET title = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL RETURNING ` +
		strings.Join(keyPointColumns, ", ")
	var kp KeyPoint
	if err := sqlscan.Get(ctx, r.DB, &kp, query, id, title, now); err != nil {
		if sqlscan.NotFound(err) {
			return KeyPoint{}, ErrNotFound
		}
		return KeyPoint{}, err
	}
	return kp, nil
}

// DeleteKeyPoint soft-deletes a key point.
func (r *PGRepo) DeleteKeyPoint(ctx context.Context, id string, now time.Time) error {
	const query = `UPDATE key_points SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	return execOne(ctx, r.DB, query, ErrNotFound, id, now)
}

// UpdateActionSuggestion applies a patch under a row lock so the
// completedAt transition is evaluated against the current flag.
func (r *PGRepo) UpdateActionSuggestion(ctx context.Context, id string, p ActionSuggestionPatch, now time.Time) (ActionSuggestion, error) {
	var out ActionSuggestion
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		current, err := r.getActionSuggestion(ctx, tx, id, true)
		if err != nil {
			return err
		}
		out = applyActionPatch(current, p, now)
		const update = `
UPDATE action_suggestions
SET title = $2, label = $3, is_completed = $4, completed_at = $5, updated_at = $6
WHERE id = $1`
		_, err = tx.ExecContext(ctx, update, id, out.Title, out.Label, out.IsCompleted, out.CompletedAt, now)
		return err
	})
	if err != nil {
		return ActionSuggestion{}, err
	}
	return out, nil
}

// DeleteActionSuggestion soft-deletes an action suggestion.
func (r *PGRepo) DeleteActionSuggestion(ctx context.Context, id string, now time.Time) error {
	const query = `UPDATE action_suggestions SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	return execOne(ctx, r.DB, query, ErrNotFound, id, now)
}

func (r *PGRepo) getActionSuggestion(ctx context.Context, q sqlscan.Querier, id string, forUpdate bool) (ActionSuggestion, error) {
	builder := db.Psql().
		Select(actionSuggestionColumns...).
		From(actionSuggestionsTable).
		Where(squirrel.Eq{"id": id, "deleted_at": nil})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return ActionSuggestion{}, err
	}
	var a ActionSuggestion
	if err := sqlscan.Get(ctx, q, &a, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return ActionSuggestion{}, ErrNotFound
		}
		return ActionSuggestion{}, err
	}
	return a, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execOne runs query and returns noRows when it affected nothing.
func execOne(ctx context.Context, e execer, query string, noRows error, args ...any) error {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return noRows
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
