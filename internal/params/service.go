package params

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/shared/server/respond"
	"compliance-backend/internal/shared/telemetry"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Service reads and maintains application parameters.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Seed inserts every default row that is missing. Existing values are never
// overwritten. It returns how many rows were created.
func (s *Service) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, d := range Defaults {
		now := s.now()
		ok, err := s.Repo.CreateIfAbsent(ctx, Parameter{
			ID:          uuid.NewString(),
			Key:         d.Key,
			Value:       d.Value,
			Description: d.Description,
			Category:    d.Category,
			IsSystem:    d.IsSystem,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", d.Key, err)
		}
		if ok {
			created++
		}
	}
	telemetry.Info("params.seed", map[string]any{
		"created": created,
		"total":   len(Defaults),
	})
	return created, nil
}

// List returns a page of parameters.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Parameter, respond.Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	items, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, respond.Pagination{}, err
	}
	return items, respond.Paginate(f.Page, f.Limit, total), nil
}

// Get returns the parameter stored under key.
func (s *Service) Get(ctx context.Context, key Key) (Parameter, error) {
	return s.Repo.GetByKey(ctx, key)
}

// UpdateByID replaces the value of one parameter.
func (s *Service) UpdateByID(ctx context.Context, id, value string) (Parameter, error) {
	if strings.TrimSpace(id) == "" {
		return Parameter{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Parameter{}, err
	}
	if err := validateValue(current.Key, value); err != nil {
		return Parameter{}, err
	}
	updated, err := s.Repo.UpdateValue(ctx, id, value, s.now())
	if err != nil {
		return Parameter{}, err
	}
	telemetry.Info("params.update", map[string]any{
		"key":   string(updated.Key),
		"empty": value == "",
	})
	return updated, nil
}

// Set replaces the value stored under key, seeding the row first when it
// is one of the defaults and has not been created yet.
func (s *Service) Set(ctx context.Context, key Key, value string) (Parameter, error) {
	current, err := s.Repo.GetByKey(ctx, key)
	if errors.Is(err, ErrNotFound) {
		if _, err := s.Seed(ctx); err != nil {
			return Parameter{}, err
		}
		current, err = s.Repo.GetByKey(ctx, key)
	}
	if err != nil {
		return Parameter{}, err
	}
	return s.UpdateByID(ctx, current.ID, value)
}

// APIKey returns the stored value for a provider key. A missing row or an
// empty value yields "".
func (s *Service) APIKey(ctx context.Context, key Key) (string, error) {
	p, err := s.Repo.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(p.Value), nil
}

// ActiveProvider returns the lower-cased AI_MODEL value, or DefaultAIModel
// when it is not set.
func (s *Service) ActiveProvider(ctx context.Context) (string, error) {
	v, err := s.APIKey(ctx, KeyAIModel)
	if err != nil {
		return "", err
	}
	if v == "" {
		return DefaultAIModel, nil
	}
	return strings.ToLower(v), nil
}

func validateValue(key Key, value string) error {
	if key == KeyAIModel {
		v := strings.ToLower(strings.TrimSpace(value))
		for _, name := range ProviderNames {
			if v == name {
				return nil
			}
		}
		return fmt.Errorf("%w: AI_MODEL must be one of %s", ErrInvalidInput, strings.Join(ProviderNames, ", "))
	}
	return nil
}
