package params

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService() (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestSeedCreatesMissingRowsOnly(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	created, err := svc.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if created != len(Defaults) {
		t.Fatalf("expected %d rows, got %d", len(Defaults), created)
	}

	p, err := repo.GetByKey(ctx, KeyClaudeAPIKey)
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if _, err := repo.UpdateValue(ctx, p.ID, "sk-live", time.Now()); err != nil {
		t.Fatalf("UpdateValue: %v", err)
	}

	created, err = svc.Seed(ctx)
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected no new rows, got %d", created)
	}
	key, err := svc.APIKey(ctx, KeyClaudeAPIKey)
	if err != nil || key != "sk-live" {
		t.Fatalf("expected existing value kept, got %q (%v)", key, err)
	}
}

func TestActiveProvider(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		seed  bool
		value string
		want  string
	}{
		{name: "missing row", want: "claude"},
		{name: "seeded default", seed: true, want: "claude"},
		{name: "configured", seed: true, value: "Gemini", want: "gemini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			if tt.seed {
				if _, err := svc.Seed(ctx); err != nil {
					t.Fatalf("Seed: %v", err)
				}
			}
			if tt.value != "" {
				p, _ := repo.GetByKey(ctx, KeyAIModel)
				if _, err := repo.UpdateValue(ctx, p.ID, tt.value, time.Now()); err != nil {
					t.Fatalf("UpdateValue: %v", err)
				}
			}
			got, err := svc.ActiveProvider(ctx)
			if err != nil {
				t.Fatalf("ActiveProvider: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAPIKeyMissingIsEmpty(t *testing.T) {
	svc, _ := newTestService()
	key, err := svc.APIKey(context.Background(), KeyMistralAPIKey)
	if err != nil || key != "" {
		t.Fatalf("expected empty key, got %q (%v)", key, err)
	}
}

func TestUpdateByIDValidatesModel(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	model, _ := repo.GetByKey(ctx, KeyAIModel)

	if _, err := svc.UpdateByID(ctx, model.ID, "gpt"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	updated, err := svc.UpdateByID(ctx, model.ID, "mistral")
	if err != nil {
		t.Fatalf("UpdateByID: %v", err)
	}
	if updated.Value != "mistral" {
		t.Fatalf("unexpected value %q", updated.Value)
	}
	if _, err := svc.UpdateByID(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetSeedsBeforeUpdating(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	p, err := svc.Set(ctx, KeyGeminiAPIKey, "g-key")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if p.Key != KeyGeminiAPIKey || p.Value != "g-key" || p.Category != CategoryAIServices {
		t.Fatalf("unexpected parameter %+v", p)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	items, page, err := svc.List(ctx, ListFilter{Category: CategoryAIServices, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || page.TotalItems != 3 || page.TotalPages != 2 {
		t.Fatalf("unexpected page %d items, %+v", len(items), page)
	}

	items, _, _ = svc.List(ctx, ListFilter{Search: "CONFIG"})
	if len(items) != 1 || items[0].Key != KeyAIModel {
		t.Fatalf("expected AI_MODEL only, got %+v", items)
	}

	notSystem := false
	items, _, _ = svc.List(ctx, ListFilter{IsSystem: &notSystem})
	if len(items) != 0 {
		t.Fatalf("expected no user parameters, got %d", len(items))
	}
}

func TestParseKey(t *testing.T) {
	if k, ok := ParseKey(" ai_model "); !ok || k != KeyAIModel {
		t.Fatalf("expected AI_MODEL, got %q %v", k, ok)
	}
	if _, ok := ParseKey("OPENAI_API_KEY"); ok {
		t.Fatalf("expected unknown key to be rejected")
	}
}
