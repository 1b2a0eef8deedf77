package documents

import (
	"time"

	"compliance-backend/internal/shared/server/respond"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID                string                     `json:"id"`
	FileName          string                     `json:"filename"`
	OriginalName      string                     `json:"originalName"`
	TotalPages        *int                       `json:"totalPages,omitempty"`
	Category          Category                   `json:"category"`
	Size              *int64                     `json:"size,omitempty"`
	Status            Status                     `json:"status"`
	ProcessingTime    *int64                     `json:"processingTime,omitempty"`
	MediaID           string                     `json:"mediaId"`
	UserID            string                     `json:"userId"`
	Summary           *string                    `json:"summary,omitempty"`
	URL               *string                    `json:"url,omitempty"`
	KeyPoints         []KeyPointResponse         `json:"keyPoints"`
	ActionSuggestions []ActionSuggestionResponse `json:"actionSuggestions"`
	CreatedAt         time.Time                  `json:"createdAt"`
	UpdatedAt         time.Time                  `json:"updatedAt"`
	DeletedAt         *time.Time                 `json:"deletedAt,omitempty"`
}

// KeyPointResponse is the outward-facing representation of a key point.
type KeyPointResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	DocumentID string     `json:"documentId"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	DeletedAt  *time.Time `json:"deletedAt"`
}

// ActionSuggestionResponse is the outward-facing representation of an action suggestion.
type ActionSuggestionResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	IsCompleted bool       `json:"isCompleted"`
	Label       string     `json:"label"`
	DocumentID  string     `json:"documentId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// ListResponse is a page of documents.
type ListResponse struct {
	Data       []DocumentResponse `json:"data"`
	Pagination respond.Pagination `json:"pagination"`
}

type updateDocumentRequest struct {
	FileName     *string `json:"filename"`
	OriginalName *string `json:"originalName"`
	Summary      *string `json:"summary"`
	Category     *string `json:"category"`
	TotalPages   *int    `json:"totalPages"`
}

type updateKeyPointRequest struct {
	Title string `json:"title"`
}

type updateActionSuggestionRequest struct {
	Title       *string `json:"title"`
	Label       *string `json:"label"`
	IsCompleted *bool   `json:"isCompleted"`
}

// ToResponse converts a Detail into its JSON shape.
func ToResponse(d Detail) DocumentResponse {
	resp := DocumentResponse{
		ID:                d.ID,
		FileName:          d.FileName,
		OriginalName:      d.OriginalName,
		TotalPages:        d.TotalPages,
		Category:          d.Category,
		Size:              d.Size,
		Status:            d.Status,
		ProcessingTime:    d.ProcessingTimeMs,
		MediaID:           d.MediaID,
		UserID:            d.UserID,
		Summary:           d.Summary,
		URL:               d.URL,
		KeyPoints:         make([]KeyPointResponse, 0, len(d.KeyPoints)),
		ActionSuggestions: make([]ActionSuggestionResponse, 0, len(d.ActionSuggestions)),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		DeletedAt:         d.DeletedAt,
	}
	for _, kp := range d.KeyPoints {
		resp.KeyPoints = append(resp.KeyPoints, toKeyPointResponse(kp))
	}
	for _, a := range d.ActionSuggestions {
		resp.ActionSuggestions = append(resp.ActionSuggestions, toActionSuggestionResponse(a))
	}
	return resp
}

func toKeyPointResponse(kp KeyPoint) KeyPointResponse {
	return KeyPointResponse{
		ID:         kp.ID,
		Title:      kp.Title,
		DocumentID: kp.DocumentID,
		CreatedAt:  kp.CreatedAt,
		UpdatedAt:  kp.UpdatedAt,
		DeletedAt:  kp.DeletedAt,
	}
}

func toActionSuggestionResponse(a ActionSuggestion) ActionSuggestionResponse {
	return ActionSuggestionResponse{
		ID:          a.ID,
		Title:       a.Title,
		IsCompleted: a.IsCompleted,
		Label:       a.Label,
		DocumentID:  a.DocumentID,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		DeletedAt:   a.DeletedAt,
		CompletedAt: a.CompletedAt,
	}
}
