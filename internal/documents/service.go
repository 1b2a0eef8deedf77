package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"compliance-backend/internal/media"
	"compliance-backend/internal/shared/server/respond"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	listConcurrency = 4
)

// MediaLookup resolves the media row behind a document.
type MediaLookup interface {
	Get(ctx context.Context, id string) (media.Media, error)
}

// Locator refreshes the URL of a stored object.
type Locator interface {
	Locate(ctx context.Context, storedName string) (string, error)
}

// Actor is the caller of a document operation. Non-admins only see their own documents.
type Actor struct {
	UserID string
	Admin  bool
}

// Service contains read and maintenance logic for documents. Creation and
// finalization belong to the ingestion pipeline.
type Service struct {
	Repo  Repo
	Media MediaLookup
	Files Locator
	Now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, mediaRepo MediaLookup, files Locator) *Service {
	return &Service{Repo: repo, Media: mediaRepo, Files: files}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Get returns one document with its children.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (Detail, error) {
	doc, err := s.authorized(ctx, actor, id)
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, doc)
}

// List returns a page of documents with their children.
func (s *Service) List(ctx context.Context, actor Actor, f ListFilter) ([]Detail, respond.Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if !actor.Admin {
		f.UserID = actor.UserID
	}

	docs, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, respond.Pagination{}, err
	}

	details := make([]Detail, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i := range docs {
		g.Go(func() error {
			d, err := s.detail(gctx, docs[i])
			if err != nil {
				return err
			}
			details[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, respond.Pagination{}, err
	}
	return details, respond.Paginate(f.Page, f.Limit, total), nil
}

// Update applies a patch to a document.
func (s *Service) Update(ctx context.Context, actor Actor, id string, p Patch) (Detail, error) {
	if p.Empty() {
		return Detail{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if p.FileName != nil && strings.TrimSpace(*p.FileName) == "" {
		return Detail{}, fmt.Errorf("%w: filename must not be empty", ErrInvalidInput)
	}
	if p.OriginalName != nil && strings.TrimSpace(*p.OriginalName) == "" {
		return Detail{}, fmt.Errorf("%w: originalName must not be empty", ErrInvalidInput)
	}
	if p.TotalPages != nil && *p.TotalPages < 0 {
		return Detail{}, fmt.Errorf("%w: totalPages must not be negative", ErrInvalidInput)
	}
	if p.Summary != nil {
		summary := strings.TrimSpace(*p.Summary)
		if summary == "" {
			return Detail{}, fmt.Errorf("%w: summary must not be empty", ErrInvalidInput)
		}
		p.Summary = &summary
	}
	current, err := s.authorized(ctx, actor, id)
	if err != nil {
		return Detail{}, err
	}
	if p.Summary != nil && current.Status != StatusCompleted {
		return Detail{}, fmt.Errorf("%w: summary can only be set on completed documents", ErrInvalidInput)
	}
	doc, err := s.Repo.Update(ctx, id, p, s.now())
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, doc)
}

// Delete soft-deletes a document.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.authorized(ctx, actor, id); err != nil {
		return err
	}
	return s.Repo.SoftDelete(ctx, id, s.now())
}

// UpdateKeyPoint changes the title of a key point.
func (s *Service) UpdateKeyPoint(ctx context.Context, actor Actor, id, title string) (KeyPoint, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return KeyPoint{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	kp, err := s.Repo.GetKeyPoint(ctx, id)
	if err != nil {
		return KeyPoint{}, err
	}
	if _, err := s.authorized(ctx, actor, kp.DocumentID); err != nil {
		return KeyPoint{}, err
	}
	return s.Repo.UpdateKeyPoint(ctx, id, title, s.now())
}

// DeleteKeyPoint soft-deletes a key point.
func (s *Service) DeleteKeyPoint(ctx context.Context, actor Actor, id string) error {
	kp, err := s.Repo.GetKeyPoint(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorized(ctx, actor, kp.DocumentID); err != nil {
		return err
	}
	return s.Repo.DeleteKeyPoint(ctx, id, s.now())
}

// UpdateActionSuggestion applies a patch to an action suggestion.
func (s *Service) UpdateActionSuggestion(ctx context.Context, actor Actor, id string, p ActionSuggestionPatch) (ActionSuggestion, error) {
	if p.Title == nil && p.Label == nil && p.IsCompleted == nil {
		return ActionSuggestion{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ActionSuggestion{}, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	a, err := s.Repo.GetActionSuggestion(ctx, id)
	if err != nil {
		return ActionSuggestion{}, err
	}
	if _, err := s.authorized(ctx, actor, a.DocumentID); err != nil {
		return ActionSuggestion{}, err
	}
	return s.Repo.UpdateActionSuggestion(ctx, id, p, s.now())
}

// DeleteActionSuggestion soft-deletes an action suggestion.
func (s *Service) DeleteActionSuggestion(ctx context.Context, actor Actor, id string) error {
	a, err := s.Repo.GetActionSuggestion(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorized(ctx, actor, a.DocumentID); err != nil {
		return err
	}
	return s.Repo.DeleteActionSuggestion(ctx, id, s.now())
}

// authorized loads a document and hides it from callers who do not own it.
func (s *Service) authorized(ctx context.Context, actor Actor, id string) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !actor.Admin && doc.UserID != actor.UserID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// detail loads children and media concurrently.
func (s *Service) detail(ctx context.Context, doc Document) (Detail, error) {
	d := Detail{Document: doc}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kps, err := s.Repo.ListKeyPoints(gctx, doc.ID)
		d.KeyPoints = kps
		return err
	})
	g.Go(func() error {
		actions, err := s.Repo.ListActionSuggestions(gctx, doc.ID)
		d.ActionSuggestions = actions
		return err
	})
	if s.Media != nil && doc.MediaID != "" {
		g.Go(func() error {
			m, err := s.Media.Get(gctx, doc.MediaID)
			if err != nil {
				// A missing media row only drops size and url from the view.
				return nil
			}
			size := m.Size
			url := m.URL
			if s.Files != nil {
				if fresh, err := s.Files.Locate(gctx, m.FileName); err == nil {
					url = fresh
				}
			}
			d.Size = &size
			d.URL = &url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}
	if d.KeyPoints == nil {
		d.KeyPoints = []KeyPoint{}
	}
	if d.ActionSuggestions == nil {
		d.ActionSuggestions = []ActionSuggestion{}
	}
	return d, nil
}
