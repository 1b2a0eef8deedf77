package ingest

import (
	"context"
	"fmt"

	"compliance-backend/internal/llm"
)

// ActiveModel reports the configured provider name.
type ActiveModel interface {
	ActiveProvider(ctx context.Context) (string, error)
}

// RegistrySource resolves the active provider from a model setting and a registry.
type RegistrySource struct {
	Registry *llm.Registry
	Model    ActiveModel
}

func NewRegistrySource(reg *llm.Registry, model ActiveModel) *RegistrySource {
	return &RegistrySource{Registry: reg, Model: model}
}

// Active reads the model setting and looks its provider up.
func (s *RegistrySource) Active(ctx context.Context) (string, llm.Provider, error) {
	name, err := s.Model.ActiveProvider(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("read active provider: %w", err)
	}
	p, err := s.Registry.Get(name)
	if err != nil {
		return name, nil, err
	}
	return name, p, nil
}

var _ ProviderSource = (*RegistrySource)(nil)
