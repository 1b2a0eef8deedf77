package analyses

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type wireKeyPoint struct {
	Title string `json:"title"`
}

type wireActionSuggestion struct {
	Title       string `json:"title"`
	Label       string `json:"label"`
	IsCompleted bool   `json:"isCompleted"`
}

type wireResult struct {
	Summary           *string                 `json:"summary"`
	KeyPoints         *[]wireKeyPoint         `json:"keyPoints"`
	ActionSuggestions *[]wireActionSuggestion `json:"actionSuggestions"`
	Category          json.RawMessage         `json:"category"`
	TotalPages        json.RawMessage         `json:"totalPages"`
	IsComplete        json.RawMessage         `json:"isComplete"`
}

// Parse decodes raw provider text into a Result. The text must be a JSON
// object with a non-blank summary plus keyPoints and actionSuggestions
// arrays. Optional fields that have the wrong type are ignored. Items with
// a blank title are dropped.
func Parse(raw string) (Result, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return Result{}, invalid("empty response")
	}

	var w wireResult
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return Result{}, invalid("not a JSON object: " + err.Error())
	}
	if w.Summary == nil || strings.TrimSpace(*w.Summary) == "" {
		return Result{}, invalid("missing summary")
	}
	if w.KeyPoints == nil {
		return Result{}, invalid("missing keyPoints")
	}
	if w.ActionSuggestions == nil {
		return Result{}, invalid("missing actionSuggestions")
	}

	res := Result{
		Summary:           strings.TrimSpace(*w.Summary),
		KeyPoints:         make([]KeyPoint, 0, len(*w.KeyPoints)),
		ActionSuggestions: make([]ActionSuggestion, 0, len(*w.ActionSuggestions)),
		Category:          optionalString(w.Category),
		TotalPages:        optionalPositiveInt(w.TotalPages),
		IsComplete:        optionalBool(w.IsComplete),
	}
	for _, kp := range *w.KeyPoints {
		title := strings.TrimSpace(kp.Title)
		if title == "" {
			continue
		}
		res.KeyPoints = append(res.KeyPoints, KeyPoint{Title: title})
	}
	for _, a := range *w.ActionSuggestions {
		title := strings.TrimSpace(a.Title)
		if title == "" {
			continue
		}
		res.ActionSuggestions = append(res.ActionSuggestions, ActionSuggestion{
			Title:       title,
			Label:       strings.TrimSpace(a.Label),
			IsCompleted: a.IsCompleted,
		})
	}
	return res, nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrAnalysisFormatInvalid, reason)
}

func optionalString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func optionalBool(raw json.RawMessage) bool {
	var b bool
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}

func optionalPositiveInt(raw json.RawMessage) *int {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil {
		return nil
	}
	if f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}
