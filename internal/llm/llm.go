package llm

import (
	"context"
	"strings"
)

// Provider names accepted by the AI_MODEL parameter.
const (
	ProviderClaude  = "claude"
	ProviderGemini  = "gemini"
	ProviderMistral = "mistral"
)

// DefaultDocumentMediaType labels document parts when the caller gives no type.
const DefaultDocumentMediaType = "application/pdf"

// Provider is an AI text-analysis backend. SendWithDocument attaches a
// base64 document to the prompt when the provider can read one.
type Provider interface {
	SendTextOnly(ctx context.Context, prompt string) (string, error)
	SendWithDocument(ctx context.Context, prompt, docBase64 string, opts ...DocumentOption) (string, error)
}

// DocumentOptions describe an attached document.
type DocumentOptions struct {
	MediaType string
}

// DocumentOption customizes an attached document.
type DocumentOption func(*DocumentOptions)

// WithMediaType sets the MIME type sent alongside the document bytes.
func WithMediaType(mediaType string) DocumentOption {
	return func(o *DocumentOptions) {
		if mt := strings.TrimSpace(mediaType); mt != "" {
			o.MediaType = mt
		}
	}
}

// ApplyDocumentOptions resolves opts over the defaults.
func ApplyDocumentOptions(opts ...DocumentOption) DocumentOptions {
	o := DocumentOptions{MediaType: DefaultDocumentMediaType}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// KeyFunc resolves a provider API key at call time.
type KeyFunc func(ctx context.Context) (string, error)

// ResolveKey calls fn and maps a missing or blank key to ErrProviderKeyMissing.
func ResolveKey(ctx context.Context, provider string, fn KeyFunc) (string, error) {
	if fn == nil {
		return "", &KeyMissingError{Provider: provider}
	}
	key, err := fn(ctx)
	if err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", &KeyMissingError{Provider: provider}
	}
	return key, nil
}
