package claude

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"compliance-backend/internal/llm"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com/v1"
	DefaultModel     = "claude-3-5-sonnet-latest"
	anthropicVersion = "2023-06-01"
	maxTokens        = 4096
	maxErrorBody     = 2048
	maxResponseBody  = 8 << 20
)

// Options configures the Claude client.
type Options struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Key        llm.KeyFunc
	HTTPClient *http.Client
}

// Client implements llm.Provider using the Anthropic Messages API.
type Client struct {
	baseURL    string
	model      string
	key        llm.KeyFunc
	httpClient *http.Client
}

// New constructs a Claude client.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, model: model, key: opts.Key, httpClient: httpClient}
}

type source struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type contentPart struct {
	Type   string  `json:"type"`
	Text   string  `json:"text,omitempty"`
	Source *source `json:"source,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// SendTextOnly sends the prompt as a plain user message.
func (c *Client) SendTextOnly(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
}

// SendWithDocument sends the document part followed by the prompt in one user message.
func (c *Client) SendWithDocument(ctx context.Context, prompt, docBase64 string, opts ...llm.DocumentOption) (string, error) {
	o := llm.ApplyDocumentOptions(opts...)
	src, err := documentSource(o.MediaType, docBase64)
	if err != nil {
		return "", err
	}
	return c.send(ctx, messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "document", Source: src},
				{Type: "text", Text: prompt},
			},
		}},
	})
}

// documentSource builds the document block. Plain text goes as a text source;
// the Messages API reads base64 documents only as application/pdf, so every
// other upload is labelled that way.
func documentSource(mediaType, docBase64 string) (*source, error) {
	if mt, _, _ := mime.ParseMediaType(mediaType); mt == "text/plain" {
		raw, err := base64.StdEncoding.DecodeString(docBase64)
		if err != nil {
			return nil, &llm.RequestFailedError{Provider: llm.ProviderClaude, Err: fmt.Errorf("decode document: %w", err)}
		}
		return &source{Type: "text", MediaType: "text/plain", Data: string(raw)}, nil
	}
	return &source{Type: "base64", MediaType: llm.DefaultDocumentMediaType, Data: docBase64}, nil
}

func (c *Client) send(ctx context.Context, reqBody messagesRequest) (string, error) {
	apiKey, err := llm.ResolveKey(ctx, llm.ProviderClaude, c.key)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", &llm.RequestFailedError{Provider: llm.ProviderClaude, Err: fmt.Errorf("claude request timeout: %w", err)}
		}
		return "", &llm.RequestFailedError{Provider: llm.ProviderClaude, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", &llm.RequestFailedError{Provider: llm.ProviderClaude, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &llm.RequestFailedError{
			Provider:   llm.ProviderClaude,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxErrorBody),
		}
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", llm.Malformed(llm.ProviderClaude, "invalid json: "+err.Error())
	}
	if parsed.Error != nil {
		return "", llm.Malformed(llm.ProviderClaude, parsed.Error.Type+": "+parsed.Error.Message)
	}
	for _, part := range parsed.Content {
		if part.Type == "text" && strings.TrimSpace(part.Text) != "" {
			return part.Text, nil
		}
	}
	return "", llm.Malformed(llm.ProviderClaude, "response has no text content")
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ llm.Provider = (*Client)(nil)
