package params

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo keeps parameters in process memory.
type MemoryRepo struct {
	mu   sync.RWMutex
	rows map[string]Parameter
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: map[string]Parameter{}}
}

func (r *MemoryRepo) List(ctx context.Context, f ListFilter) ([]Parameter, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]Parameter, 0, len(r.rows))
	for _, p := range r.rows {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.IsSystem != nil && p.IsSystem != *f.IsSystem {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Value), search) &&
			!strings.Contains(strings.ToLower(p.Category), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].Key < matched[j].Key
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if f.Limit <= 0 {
		return matched, total, nil
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * f.Limit
	if start >= total {
		return []Parameter{}, total, nil
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *MemoryRepo) GetByKey(ctx context.Context, key Key) (Parameter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.rows {
		if p.Key == key {
			return p, nil
		}
	}
	return Parameter{}, ErrNotFound
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Parameter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[id]
	if !ok {
		return Parameter{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) CreateIfAbsent(ctx context.Context, p Parameter) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Key == p.Key {
			return false, nil
		}
	}
	r.rows[p.ID] = p
	return true, nil
}

func (r *MemoryRepo) UpdateValue(ctx context.Context, id, value string, now time.Time) (Parameter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return Parameter{}, ErrNotFound
	}
	p.Value = value
	p.UpdatedAt = now
	r.rows[id] = p
	return p, nil
}

var _ Repo = (*MemoryRepo)(nil)
