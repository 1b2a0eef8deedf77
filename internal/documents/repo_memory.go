package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo. A single lock guards
// documents and children so Complete is atomic.
type MemoryRepo struct {
	mu        sync.RWMutex
	docs      map[string]Document
	keyPoints map[string]KeyPoint
	actions   map[string]ActionSuggestion
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:      make(map[string]Document),
		keyPoints: make(map[string]KeyPoint),
		actions:   make(map[string]ActionSuggestion),
	}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.ID]; exists {
		return ErrInvalidInput
	}
	r.docs[doc.ID] = doc
	return nil
}

// Get returns a live document by id.
func (r *MemoryRepo) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok || doc.DeletedAt != nil {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// List returns one page of live documents, newest first, and the total match count.
func (r *MemoryRepo) List(ctx context.Context, f ListFilter) ([]Document, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	r.mu.RLock()
	matched := make([]Document, 0, len(r.docs))
	for _, doc := range r.docs {
		if doc.DeletedAt != nil {
			continue
		}
		if f.UserID != "" && doc.UserID != f.UserID {
			continue
		}
		if f.Category != "" && doc.Category != f.Category {
			continue
		}
		if f.Status != "" && doc.Status != f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(doc.FileName), search) &&
			!strings.Contains(strings.ToLower(doc.OriginalName), search) {
			continue
		}
		matched = append(matched, doc)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset, limit := pageBounds(f)
	if offset >= total {
		return []Document{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

// Update applies a patch to a live document.
func (r *MemoryRepo) Update(ctx context.Context, id string, p Patch, now time.Time) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.DeletedAt != nil {
		return Document{}, ErrNotFound
	}
	if p.Summary != nil && doc.Status != StatusCompleted {
		return Document{}, ErrInvalidTransition
	}
	if p.FileName != nil {
		doc.FileName = *p.FileName
	}
	if p.OriginalName != nil {
		doc.OriginalName = *p.OriginalName
	}
	if p.Summary != nil {
		summary := *p.Summary
		doc.Summary = &summary
	}
	if p.Category != nil {
		doc.Category = *p.Category
	}
	if p.TotalPages != nil {
		pages := *p.TotalPages
		doc.TotalPages = &pages
	}
	doc.UpdatedAt = now
	r.docs[id] = doc
	return doc, nil
}

// SoftDelete marks a document deleted.
func (r *MemoryRepo) SoftDelete(ctx context.Context, id string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.DeletedAt != nil {
		return ErrNotFound
	}
	doc.DeletedAt = &now
	doc.UpdatedAt = now
	r.docs[id] = doc
	return nil
}

// Complete writes children and finalizes the document under one lock.
func (r *MemoryRepo) Complete(ctx context.Context, id string, c Completion, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.DeletedAt != nil {
		return ErrNotFound
	}
	if doc.Status != StatusPending {
		return ErrInvalidTransition
	}
	for _, kp := range c.KeyPoints {
		r.keyPoints[kp.ID] = kp
	}
	for _, a := range c.ActionSuggestions {
		r.actions[a.ID] = a
	}
	summary := c.Summary
	ms := c.ProcessingTimeMs
	doc.Summary = &summary
	doc.Category = c.Category
	doc.TotalPages = c.TotalPages
	doc.ProcessingTimeMs = &ms
	doc.Status = StatusCompleted
	doc.UpdatedAt = now
	r.docs[id] = doc
	return nil
}

// MarkError moves a PENDING document to ERROR.
func (r *MemoryRepo) MarkError(ctx context.Context, id string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.DeletedAt != nil {
		return ErrNotFound
	}
	if doc.Status != StatusPending {
		return ErrInvalidTransition
	}
	doc.Status = StatusError
	doc.UpdatedAt = now
	r.docs[id] = doc
	return nil
}

// ListKeyPoints returns live key points of a document, oldest first.
func (r *MemoryRepo) ListKeyPoints(ctx context.Context, documentID string) ([]KeyPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []KeyPoint{}
	for _, kp := range r.keyPoints {
		if kp.DocumentID == documentID && kp.DeletedAt == nil {
			out = append(out, kp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListActionSuggestions returns live action suggestions of a document, oldest first.
func (r *MemoryRepo) ListActionSuggestions(ctx context.Context, documentID string) ([]ActionSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []ActionSuggestion{}
	for _, a := range r.actions {
		if a.DocumentID == documentID && a.DeletedAt == nil {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetKeyPoint returns a live key point.
func (r *MemoryRepo) GetKeyPoint(ctx context.Context, id string) (KeyPoint, error) {
	if err := ctx.Err(); err != nil {
		return KeyPoint{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kp, ok := r.keyPoints[id]
	if !ok || kp.DeletedAt != nil {
		return KeyPoint{}, ErrNotFound
	}
	return kp, nil
}

// GetActionSuggestion returns a live action suggestion.
func (r *MemoryRepo) GetActionSuggestion(ctx context.Context, id string) (ActionSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return ActionSuggestion{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[id]
	if !ok || a.DeletedAt != nil {
		return ActionSuggestion{}, ErrNotFound
	}
	return a, nil
}

// UpdateKeyPoint changes a key point title.
func (r *MemoryRepo) UpdateKeyPoint(ctx context.Context, id, title string, now time.Time) (KeyPoint, error) {
	if err := ctx.Err(); err != nil {
		return KeyPoint{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kp, ok := r.keyPoints[id]
	if !ok || kp.DeletedAt != nil {
		return KeyPoint{}, ErrNotFound
	}
	kp.Title = title
	kp.UpdatedAt = now
	r.keyPoints[id] = kp
	return kp, nil
}

// DeleteKeyPoint soft-deletes a key point.
func (r *MemoryRepo) DeleteKeyPoint(ctx context.Context, id string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kp, ok := r.keyPoints[id]
	if !ok || kp.DeletedAt != nil {
		return ErrNotFound
	}
	kp.DeletedAt = &now
	kp.UpdatedAt = now
	r.keyPoints[id] = kp
	return nil
}

// UpdateActionSuggestion applies a patch to an action suggestion.
func (r *MemoryRepo) UpdateActionSuggestion(ctx context.Context, id string, p ActionSuggestionPatch, now time.Time) (ActionSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return ActionSuggestion{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actions[id]
	if !ok || a.DeletedAt != nil {
		return ActionSuggestion{}, ErrNotFound
	}
	a = applyActionPatch(a, p, now)
	r.actions[id] = a
	return a, nil
}

// DeleteActionSuggestion soft-deletes an action suggestion.
func (r *MemoryRepo) DeleteActionSuggestion(ctx context.Context, id string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actions[id]
	if !ok || a.DeletedAt != nil {
		return ErrNotFound
	}
	a.DeletedAt = &now
	a.UpdatedAt = now
	r.actions[id] = a
	return nil
}

// applyActionPatch sets CompletedAt when the flag turns true and clears it
// when the flag turns false.
func applyActionPatch(a ActionSuggestion, p ActionSuggestionPatch, now time.Time) ActionSuggestion {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Label != nil {
		a.Label = *p.Label
	}
	if p.IsCompleted != nil && *p.IsCompleted != a.IsCompleted {
		a.IsCompleted = *p.IsCompleted
		if a.IsCompleted {
			a.CompletedAt = &now
		} else {
			a.CompletedAt = nil
		}
	}
	a.UpdatedAt = now
	return a
}

func pageBounds(f ListFilter) (offset, limit int) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	limit = f.Limit
	if limit < 0 {
		limit = 0
	}
	return (page - 1) * limit, limit
}

var _ Repo = (*MemoryRepo)(nil)
