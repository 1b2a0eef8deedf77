package params

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

const parametersTable = "application_parameters"

var parameterColumns = []string{
	"id",
	"key",
	"value",
	"description",
	"category",
	"is_system",
	"created_at",
	"updated_at",
}

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) List(ctx context.Context, f ListFilter) ([]Parameter, int, error) {
	where := squirrel.And{}
	if f.Category != "" {
		where = append(where, squirrel.Eq{"category": f.Category})
	}
	if f.IsSystem != nil {
		where = append(where, squirrel.Eq{"is_system": *f.IsSystem})
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"value": pattern},
			squirrel.ILike{"category": pattern},
		})
	}

	countQuery, countArgs, err := db.Psql().Select("COUNT(*)").From(parametersTable).Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count parameters: %w", err)
	}

	builder := db.Psql().
		Select(parameterColumns...).
		From(parametersTable).
		Where(where).
		OrderBy("created_at DESC", "key ASC")
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		builder = builder.Limit(uint64(f.Limit)).Offset(uint64((page - 1) * f.Limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	out := []Parameter{}
	if err := sqlscan.Select(ctx, r.DB, &out, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list parameters: %w", err)
	}
	return out, total, nil
}

func (r *PGRepo) GetByKey(ctx context.Context, key Key) (Parameter, error) {
	return r.getOne(ctx, squirrel.Eq{"key": key})
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Parameter, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *PGRepo) getOne(ctx context.Context, where squirrel.Eq) (Parameter, error) {
	query, args, err := db.Psql().Select(parameterColumns...).From(parametersTable).Where(where).Limit(1).ToSql()
	if err != nil {
		return Parameter{}, err
	}
	var p Parameter
	if err := sqlscan.Get(ctx, r.DB, &p, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return Parameter{}, ErrNotFound
		}
		return Parameter{}, err
	}
	return p, nil
}

func (r *PGRepo) CreateIfAbsent(ctx context.Context, p Parameter) (bool, error) {
	const query = `
INSERT INTO application_parameters (id, key, value, description, category, is_system, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (key) DO NOTHING`
	res, err := r.DB.ExecContext(ctx, query,
		p.ID,
		p.Key,
		p.Value,
		p.Description,
		p.Category,
		p.IsSystem,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepo) UpdateValue(ctx context.Context, id, value string, now time.Time) (Parameter, error) {
	query := `UPDATE application_parameters SET value = $2, updated_at = $3 WHERE id = $1 RETURNING ` +
		strings.Join(parameterColumns, ", ")
	var p Parameter
	if err := sqlscan.Get(ctx, r.DB, &p, query, id, value, now); err != nil {
		if sqlscan.NotFound(err) {
			return Parameter{}, ErrNotFound
		}
		return Parameter{}, err
	}
	return p, nil
}

var _ Repo = (*PGRepo)(nil)
