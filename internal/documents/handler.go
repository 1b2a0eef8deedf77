package documents

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/auth"
	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document read/maintenance routes. POST /documents
// is registered by the ingestion handler.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.PATCH("/documents/:id", h.update)
	rg.DELETE("/documents/:id", h.delete)

	rg.PATCH("/key-points/:id", h.updateKeyPoint)
	rg.DELETE("/key-points/:id", h.deleteKeyPoint)
	rg.PATCH("/action-suggestions/:id", h.updateActionSuggestion)
	rg.DELETE("/action-suggestions/:id", h.deleteActionSuggestion)
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		UserID: middleware.UserIDFromContext(c),
		Admin:  middleware.UserRoleFromContext(c) == auth.RoleAdmin,
	}
}

func (h *Handler) list(c *gin.Context) {
	f := ListFilter{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", defaultPageSize),
		Search: c.Query("search"),
		UserID: c.Query("userId"),
	}
	if raw := c.Query("category"); raw != "" {
		cat, ok := ParseCategory(raw)
		if !ok {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown category", gin.H{"category": raw})
			return
		}
		f.Category = cat
	}
	if raw := c.Query("status"); raw != "" {
		st, ok := ParseStatus(raw)
		if !ok {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown status", gin.H{"status": raw})
			return
		}
		f.Status = st
	}

	details, page, err := h.Svc.List(c.Request.Context(), actorFrom(c), f)
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}
	resp := ListResponse{Data: make([]DocumentResponse, 0, len(details)), Pagination: page}
	for _, d := range details {
		resp.Data = append(resp.Data, ToResponse(d))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	d, err := h.Svc.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err, "failed to fetch document")
		return
	}
	respond.OK(c, ToResponse(d))
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	p := Patch{
		FileName:     req.FileName,
		OriginalName: req.OriginalName,
		Summary:      req.Summary,
		TotalPages:   req.TotalPages,
	}
	if req.Category != nil {
		cat, ok := ParseCategory(*req.Category)
		if !ok {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown category", gin.H{"category": *req.Category})
			return
		}
		p.Category = &cat
	}

	d, err := h.Svc.Update(c.Request.Context(), actorFrom(c), id, p)
	if err != nil {
		writeError(c, err, "failed to update document")
		return
	}
	respond.OK(c, ToResponse(d))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	if err := h.Svc.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err, "failed to delete document")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) updateKeyPoint(c *gin.Context) {
	var req updateKeyPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	kp, err := h.Svc.UpdateKeyPoint(c.Request.Context(), actorFrom(c), c.Param("id"), req.Title)
	if err != nil {
		writeError(c, err, "failed to update key point")
		return
	}
	respond.OK(c, toKeyPointResponse(kp))
}

func (h *Handler) deleteKeyPoint(c *gin.Context) {
	if err := h.Svc.DeleteKeyPoint(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete key point")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) updateActionSuggestion(c *gin.Context) {
	var req updateActionSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	a, err := h.Svc.UpdateActionSuggestion(c.Request.Context(), actorFrom(c), c.Param("id"), ActionSuggestionPatch{
		Title:       req.Title,
		Label:       req.Label,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		writeError(c, err, "failed to update action suggestion")
		return
	}
	respond.OK(c, toActionSuggestionResponse(a))
}

func (h *Handler) deleteActionSuggestion(c *gin.Context) {
	if err := h.Svc.DeleteActionSuggestion(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete action suggestion")
		return
	}
	respond.NoContent(c)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resource not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}
