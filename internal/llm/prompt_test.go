package llm

import (
	"strings"
	"testing"
)

func TestBuildAnalysisPrompt(t *testing.T) {
	got := BuildAnalysisPrompt("policy.pdf")
	if !strings.Contains(got, "File name: policy.pdf") {
		t.Fatalf("expected file name to be substituted")
	}
	if strings.Contains(got, filenamePlaceholder) {
		t.Fatalf("placeholder left in prompt")
	}
	if got != BuildAnalysisPrompt("policy.pdf") {
		t.Fatalf("expected deterministic output")
	}
	for _, field := range []string{`"summary"`, `"keyPoints"`, `"actionSuggestions"`, `"category"`, `"totalPages"`, `"isComplete"`} {
		if !strings.Contains(got, field) {
			t.Fatalf("prompt missing field %s", field)
		}
	}
	if strings.Contains(got, "CATEGORY HINT") {
		t.Fatalf("hint must be absent by default")
	}
}

func TestBuildAnalysisPromptSubstitutesLiterally(t *testing.T) {
	name := `weird $1 {FILENAME} "quoted".pdf`
	got := BuildAnalysisPrompt(name)
	if !strings.Contains(got, "File name: "+name) {
		t.Fatalf("expected literal substitution, got %q", got[strings.Index(got, "File name:"):])
	}
}

func TestBuildAnalysisPromptCategoryHint(t *testing.T) {
	got := BuildAnalysisPrompt("a.pdf", WithCategoryHint("AUDIT"))
	if !strings.HasSuffix(got, "Use it unless the content clearly belongs to another category.") {
		t.Fatalf("expected hint appended")
	}
	if !strings.Contains(got, "classified as AUDIT") {
		t.Fatalf("expected category in hint")
	}
	if BuildAnalysisPrompt("a.pdf", WithCategoryHint("  ")) != BuildAnalysisPrompt("a.pdf") {
		t.Fatalf("blank hint should be ignored")
	}
}
