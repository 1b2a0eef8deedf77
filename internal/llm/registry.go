package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// Registry maps AI_MODEL values to providers.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds p under name, wrapped with request metrics and logs.
func (r *Registry) Register(name string, p Provider) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.providers[name] = &instrumented{name: name, next: p}
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists registered provider names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type instrumented struct {
	name string
	next Provider
}

func (p *instrumented) SendTextOnly(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := p.next.SendTextOnly(ctx, prompt)
	p.record("text", start, len(prompt), err)
	return out, err
}

func (p *instrumented) SendWithDocument(ctx context.Context, prompt, docBase64 string, opts ...DocumentOption) (string, error) {
	start := time.Now()
	out, err := p.next.SendWithDocument(ctx, prompt, docBase64, opts...)
	p.record("document", start, len(prompt), err)
	return out, err
}

func (p *instrumented) record(mode string, start time.Time, promptLen int, err error) {
	fields := map[string]any{
		"provider":      p.name,
		"mode":          mode,
		"prompt_length": promptLen,
		"duration_ms":   time.Since(start).Milliseconds(),
	}
	if err == nil {
		metrics.IncProviderRequest(p.name, "ok")
		telemetry.Info("llm.response", fields)
		return
	}
	outcome := outcomeOf(err)
	metrics.IncProviderRequest(p.name, outcome)
	fields["outcome"] = outcome
	fields["error"] = err.Error()
	var reqErr *RequestFailedError
	if errors.As(err, &reqErr) && reqErr.StatusCode != 0 {
		fields["status_code"] = reqErr.StatusCode
	}
	telemetry.Error("llm.response", fields)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrProviderKeyMissing):
		return "key_missing"
	case errors.Is(err, ErrProviderResponseMalformed):
		return "malformed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "failed"
	}
}
