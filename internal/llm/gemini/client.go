package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"compliance-backend/internal/llm"
)

const (
	DefaultModel    = "gemini-1.5-pro-latest"
	temperature     = 0.7
	maxOutputTokens = 4096
)

// generateFunc performs one GenerateContent call with a freshly resolved key.
type generateFunc func(ctx context.Context, apiKey, model string, parts ...genai.Part) (*genai.GenerateContentResponse, error)

// Options configures the Gemini client.
type Options struct {
	Model   string
	Timeout time.Duration
	Key     llm.KeyFunc
}

// Client implements llm.Provider using the Gemini SDK. A new SDK client is
// created per call because the API key is resolved per call.
type Client struct {
	model    string
	timeout  time.Duration
	key      llm.KeyFunc
	generate generateFunc
}

// New constructs a Gemini client.
func New(opts Options) *Client {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{model: model, timeout: opts.Timeout, key: opts.Key, generate: sdkGenerate}
}

func sdkGenerate(ctx context.Context, apiKey, model string, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	m := client.GenerativeModel(model)
	m.SetTemperature(temperature)
	m.SetMaxOutputTokens(maxOutputTokens)
	return m.GenerateContent(ctx, parts...)
}

// SendTextOnly sends the prompt as the only part.
func (c *Client) SendTextOnly(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, genai.Text(prompt))
}

// SendWithDocument sends the document as inline data followed by the prompt.
func (c *Client) SendWithDocument(ctx context.Context, prompt, docBase64 string, opts ...llm.DocumentOption) (string, error) {
	o := llm.ApplyDocumentOptions(opts...)
	data, err := base64.StdEncoding.DecodeString(docBase64)
	if err != nil {
		return "", &llm.RequestFailedError{Provider: llm.ProviderGemini, Err: fmt.Errorf("decode document: %w", err)}
	}
	return c.send(ctx, genai.Blob{MIMEType: o.MediaType, Data: data}, genai.Text(prompt))
}

func (c *Client) send(ctx context.Context, parts ...genai.Part) (string, error) {
	apiKey, err := llm.ResolveKey(ctx, llm.ProviderGemini, c.key)
	if err != nil {
		return "", err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.generate(ctx, apiKey, c.model, parts...)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", llm.Malformed(llm.ProviderGemini, blocked.Error())
		}
		return "", &llm.RequestFailedError{Provider: llm.ProviderGemini, StatusCode: statusOf(err), Err: err}
	}
	return firstText(resp)
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", llm.Malformed(llm.ProviderGemini, "response missing candidates")
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok && strings.TrimSpace(string(t)) != "" {
			return string(t), nil
		}
	}
	return "", llm.Malformed(llm.ProviderGemini, "response has no text part")
}

// statusOf extracts an HTTP-equivalent status from SDK errors, or 0.
func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return code
		}
		if st := apiErr.GRPCStatus(); st != nil {
			return httpFromGRPC(st.Code())
		}
	}
	return 0
}

func httpFromGRPC(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.OK:
		return 0
	default:
		return http.StatusInternalServerError
	}
}

var _ llm.Provider = (*Client)(nil)
