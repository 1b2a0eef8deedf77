package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"compliance-backend/internal/llm"
	"compliance-backend/internal/shared/telemetry"
)

const (
	DefaultBaseURL  = "https://api.mistral.ai/v1"
	DefaultModel    = "mistral-large-latest"
	maxTokens       = 4096
	temperature     = 0.7
	maxErrorBody    = 2048
	maxResponseBody = 8 << 20
)

// NoDocumentDisclaimer is appended to the prompt when a document cannot be forwarded.
const NoDocumentDisclaimer = "[Note: the document content could not be sent to this model, so no document " +
	"content is available to you. Do not invent an analysis. Ask for the document text to be provided " +
	"directly instead.]"

// Options configures the Mistral client.
type Options struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Key        llm.KeyFunc
	HTTPClient *http.Client
}

// Client implements llm.Provider using Mistral chat completions. It cannot
// read documents; SendWithDocument degrades to a text-only request.
type Client struct {
	baseURL    string
	model      string
	key        llm.KeyFunc
	httpClient *http.Client
}

// New constructs a Mistral client.
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

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// SendTextOnly sends the prompt as a single user message.
func (c *Client) SendTextOnly(ctx context.Context, prompt string) (string, error) {
	apiKey, err := llm.ResolveKey(ctx, llm.ProviderMistral, c.key)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", &llm.RequestFailedError{Provider: llm.ProviderMistral, Err: fmt.Errorf("mistral request timeout: %w", err)}
		}
		return "", &llm.RequestFailedError{Provider: llm.ProviderMistral, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", &llm.RequestFailedError{Provider: llm.ProviderMistral, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return "", &llm.RequestFailedError{Provider: llm.ProviderMistral, StatusCode: resp.StatusCode, Body: msg}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", llm.Malformed(llm.ProviderMistral, "invalid json: "+err.Error())
	}
	if len(parsed.Choices) == 0 {
		return "", llm.Malformed(llm.ProviderMistral, "response missing choices")
	}
	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", llm.Malformed(llm.ProviderMistral, "response empty content")
	}
	return content, nil
}

// SendWithDocument never forwards docBase64. It sends the prompt with
// NoDocumentDisclaimer appended.
func (c *Client) SendWithDocument(ctx context.Context, prompt, docBase64 string, opts ...llm.DocumentOption) (string, error) {
	telemetry.Warn("llm.document_dropped", map[string]any{
		"provider":       llm.ProviderMistral,
		"document_bytes": len(docBase64),
	})
	return c.SendTextOnly(ctx, DegradedPrompt(prompt))
}

// DegradedPrompt returns the text-only prompt used in place of a document request.
func DegradedPrompt(prompt string) string {
	return prompt + "\n\n" + NoDocumentDisclaimer
}

var _ llm.Provider = (*Client)(nil)
