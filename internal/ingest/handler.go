package ingest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/documents"
	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

const (
	defaultMaxUploadBytes = 10 << 20 // 10MB
	multipartOverhead     = 1 << 20
)

// Handler exposes the upload route.
type Handler struct {
	Orchestrator   *Orchestrator
	MaxUploadBytes int64
}

func NewHandler(o *Orchestrator, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Orchestrator: o, MaxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > h.MaxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file exceeds upload limit", gin.H{"maxBytes": h.MaxUploadBytes})
		return
	}

	var hint documents.Category
	if raw := c.PostForm("category"); raw != "" {
		cat, ok := documents.ParseCategory(raw)
		if !ok {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown category", gin.H{"category": raw})
			return
		}
		hint = cat
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	detail, err := h.Orchestrator.Ingest(c.Request.Context(), Upload{
		RequestID:    middleware.RequestIDFromContext(c),
		UserID:       middleware.UserIDFromContext(c),
		OriginalName: fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Size:         fileHeader.Size,
		Body:         file,
		CategoryHint: hint,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.Set("documentId", detail.ID)
	c.Set("statusTransition", "PENDING->COMPLETED")
	respond.Created(c, documents.ToResponse(detail))
}

func writeError(c *gin.Context, err error) {
	var se *StageError
	if !errors.As(err, &se) {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to ingest document", nil)
		return
	}
	if se.DocumentID != "" {
		c.Set("documentId", se.DocumentID)
		c.Set("statusTransition", "PENDING->ERROR")
	}

	switch se.Kind {
	case KindUnsupportedMediaType:
		respond.Error(c, http.StatusBadRequest, "unsupported_media_type", "unsupported file type", gin.H{"allowed": AllowedMediaTypes()})
	case KindInvalidUpload:
		respond.Error(c, http.StatusBadRequest, "validation_error", se.Err.Error(), nil)
	default:
		details := gin.H{"stage": se.Stage, "kind": se.Kind}
		if se.DocumentID != "" {
			details["documentId"] = se.DocumentID
		}
		respond.Error(c, http.StatusInternalServerError, "ingestion_failed",
			fmt.Sprintf("document ingestion failed at stage %s", se.Stage), details)
	}
}
