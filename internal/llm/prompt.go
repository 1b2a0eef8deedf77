package llm

import (
	_ "embed"
	"strings"
)

//go:embed prompts/analysis.txt
var analysisTemplate string

const filenamePlaceholder = "{FILENAME}"

type promptOptions struct {
	categoryHint string
}

// PromptOption adjusts the rendered analysis prompt.
type PromptOption func(*promptOptions)

// WithCategoryHint appends an instruction suggesting the expected category.
func WithCategoryHint(category string) PromptOption {
	return func(o *promptOptions) {
		o.categoryHint = strings.TrimSpace(category)
	}
}

// BuildAnalysisPrompt renders the analysis template for displayName. The
// name is substituted literally; the result is deterministic for equal input.
func BuildAnalysisPrompt(displayName string, opts ...PromptOption) string {
	var o promptOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	prompt := strings.Replace(analysisTemplate, filenamePlaceholder, displayName, 1)
	if o.categoryHint != "" {
		prompt += "\n\nCATEGORY HINT: the uploader expects this document to be classified as " +
			o.categoryHint + ". Use it unless the content clearly belongs to another category."
	}
	return prompt
}
