package params

import (
	"strings"
	"time"
)

// Key names a known application parameter.
type Key string

const (
	KeyClaudeAPIKey  Key = "CLAUDE_API_KEY"
	KeyMistralAPIKey Key = "MISTRAL_API_KEY"
	KeyGeminiAPIKey  Key = "GEMINI_API_KEY"
	KeyAIModel       Key = "AI_MODEL"
)

const (
	CategoryAIServices      = "ai_services"
	CategoryAIConfiguration = "ai_configuration"
)

// DefaultAIModel is used when AI_MODEL is unset or empty.
const DefaultAIModel = "claude"

// ProviderNames are the accepted AI_MODEL values.
var ProviderNames = []string{"claude", "gemini", "mistral"}

var knownKeys = []Key{KeyClaudeAPIKey, KeyMistralAPIKey, KeyGeminiAPIKey, KeyAIModel}

// ParseKey validates a parameter key name.
func ParseKey(raw string) (Key, bool) {
	k := Key(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range knownKeys {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Parameter is one row of the application parameter store.
type Parameter struct {
	ID          string    `db:"id" json:"id"`
	Key         Key       `db:"key" json:"key"`
	Value       string    `db:"value" json:"value"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	IsSystem    bool      `db:"is_system" json:"isSystem"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Default describes a row seeded at startup when absent.
type Default struct {
	Key         Key
	Value       string
	Description string
	Category    string
	IsSystem    bool
}

// Defaults are the rows the service guarantees to exist.
var Defaults = []Default{
	{Key: KeyClaudeAPIKey, Description: "API key for the Anthropic Claude service", Category: CategoryAIServices, IsSystem: true},
	{Key: KeyMistralAPIKey, Description: "API key for the Mistral AI service", Category: CategoryAIServices, IsSystem: true},
	{Key: KeyGeminiAPIKey, Description: "API key for the Google Gemini service", Category: CategoryAIServices, IsSystem: true},
	{Key: KeyAIModel, Value: DefaultAIModel, Description: "AI provider used for document analysis", Category: CategoryAIConfiguration, IsSystem: true},
}

// ListFilter narrows a parameter listing. Search matches value or category.
type ListFilter struct {
	Page     int
	Limit    int
	Category string
	IsSystem *bool
	Search   string
}
