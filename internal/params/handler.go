package params

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type listResponse struct {
	Data       []Parameter        `json:"data"`
	Pagination respond.Pagination `json:"pagination"`
}

type updateRequest struct {
	Value *string `json:"value"`
}

// RegisterRoutes attaches the admin-only parameter routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/application-parameters", middleware.RequireAdmin())
	g.GET("", h.list)
	g.GET("/:key", h.getByKey)
	g.PATCH("/:id", h.updateByID)
}

func (h *Handler) list(c *gin.Context) {
	f := ListFilter{
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", defaultPageSize),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("isSystem"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "isSystem must be a boolean", nil)
			return
		}
		f.IsSystem = &v
	}
	items, page, err := h.Svc.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err, "failed to list parameters")
		return
	}
	respond.OK(c, listResponse{Data: items, Pagination: page})
}

func (h *Handler) getByKey(c *gin.Context) {
	key, ok := ParseKey(c.Param("key"))
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid parameter key", gin.H{"key": c.Param("key")})
		return
	}
	p, err := h.Svc.Get(c.Request.Context(), key)
	if err != nil {
		writeError(c, err, "failed to fetch parameter")
		return
	}
	respond.OK(c, p)
}

func (h *Handler) updateByID(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "value is required", nil)
		return
	}
	p, err := h.Svc.UpdateByID(c.Request.Context(), c.Param("id"), *req.Value)
	if err != nil {
		writeError(c, err, "failed to update parameter")
		return
	}
	respond.OK(c, p)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "parameter not found", nil)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidKey):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
