package analyses

// Result is the structured analysis returned by an AI provider.
type Result struct {
	Summary           string
	KeyPoints         []KeyPoint
	ActionSuggestions []ActionSuggestion
	// Category is the raw category string; callers map unknown values.
	Category   string
	TotalPages *int
	IsComplete bool
}

type KeyPoint struct {
	Title string
}

type ActionSuggestion struct {
	Title       string
	Label       string
	IsCompleted bool
}
