package documents

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies a compliance document.
type Category string

const (
	CategoryContract Category = "CONTRACT"
	CategoryReport   Category = "REPORT"
	CategoryStandard Category = "STANDARD"
	CategoryPolicy   Category = "POLICY"
	CategoryManual   Category = "MANUAL"
	CategoryAudit    Category = "AUDIT"
)

// DefaultCategory is used when an analysis returns no recognizable category.
const DefaultCategory = CategoryReport

// ParseCategory normalizes raw into a known Category.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	switch c {
	case CategoryContract, CategoryReport, CategoryStandard, CategoryPolicy, CategoryManual, CategoryAudit:
		return c, true
	}
	return "", false
}

// Status is the analysis lifecycle state of a document. PROCESSING is part of
// the stored vocabulary but the synchronous pipeline moves PENDING straight
// to COMPLETED or ERROR.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusError      Status = "ERROR"
)

// ParseStatus normalizes raw into a known Status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusError:
		return s, true
	}
	return "", false
}

// Terminal reports whether no further pipeline transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Document is an uploaded compliance document and its analysis outcome.
type Document struct {
	ID               string     `db:"id"`
	FileName         string     `db:"filename"`
	OriginalName     string     `db:"original_name"`
	Category         Category   `db:"category"`
	Status           Status     `db:"status"`
	Summary          *string    `db:"summary"`
	TotalPages       *int       `db:"total_pages"`
	ProcessingTimeMs *int64     `db:"processing_time"`
	UserID           string     `db:"user_id"`
	MediaID          string     `db:"media_id"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at"`
}

// KeyPoint is one salient finding extracted from a document.
type KeyPoint struct {
	ID         string     `db:"id"`
	Title      string     `db:"title"`
	DocumentID string     `db:"document_id"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"`
}

// ActionSuggestion is a recommended follow-up task. CompletedAt is set exactly
// when IsCompleted is true.
type ActionSuggestion struct {
	ID          string     `db:"id"`
	Title       string     `db:"title"`
	Label       string     `db:"label"`
	IsCompleted bool       `db:"is_completed"`
	CompletedAt *time.Time `db:"completed_at"`
	DocumentID  string     `db:"document_id"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

// NewKeyPoint builds a key point row for documentID.
func NewKeyPoint(documentID, title string, now time.Time) KeyPoint {
	return KeyPoint{
		ID:         uuid.NewString(),
		Title:      title,
		DocumentID: documentID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewActionSuggestion builds an action suggestion row for documentID.
func NewActionSuggestion(documentID, title, label string, completed bool, now time.Time) ActionSuggestion {
	a := ActionSuggestion{
		ID:          uuid.NewString(),
		Title:       title,
		Label:       label,
		IsCompleted: completed,
		DocumentID:  documentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if completed {
		a.CompletedAt = &now
	}
	return a
}

// Completion is everything written when an analysis finalizes a document.
type Completion struct {
	Summary           string
	Category          Category
	TotalPages        *int
	ProcessingTimeMs  int64
	KeyPoints         []KeyPoint
	ActionSuggestions []ActionSuggestion
}

// Detail is a document with its children and media locator, as returned by reads.
type Detail struct {
	Document
	Size              *int64
	URL               *string
	KeyPoints         []KeyPoint
	ActionSuggestions []ActionSuggestion
}

// ListFilter selects documents for listing. Zero values mean "no filter".
type ListFilter struct {
	Page     int
	Limit    int
	Search   string
	Category Category
	Status   Status
	UserID   string
}

// Patch holds optional document field updates. Status is not patchable.
type Patch struct {
	FileName     *string
	OriginalName *string
	Summary      *string
	Category     *Category
	TotalPages   *int
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.FileName == nil && p.OriginalName == nil && p.Summary == nil && p.Category == nil && p.TotalPages == nil
}

// ActionSuggestionPatch holds optional action suggestion updates.
type ActionSuggestionPatch struct {
	Title       *string
	Label       *string
	IsCompleted *bool
}
