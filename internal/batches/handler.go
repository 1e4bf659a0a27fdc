package batches

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"colorbook-backend/internal/pages"
	"colorbook-backend/internal/shared/server/middleware"
	"colorbook-backend/internal/shared/server/respond"
	"colorbook-backend/internal/usage"
)

// Handler wires HTTP handlers to the batches service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches batch routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/batches", h.createBatch)
	rg.GET("/batches", h.listBatches)
	rg.GET("/batches/:id", h.getBatch)
}

type createBatchRequest struct {
	Title        string   `json:"title" binding:"required"`
	Theme        string   `json:"theme"`
	Subjects     []string `json:"subjects" binding:"required"`
	StyleID      string   `json:"styleId"`
	ComplexityID string   `json:"complexityId"`
	AudienceID   string   `json:"audienceId"`
}

func (h *Handler) createBatch(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "title and subjects are required", nil)
		return
	}

	batch, err := h.Svc.Create(c.Request.Context(), CreateInput{
		UserID:       userID,
		Title:        req.Title,
		Theme:        req.Theme,
		Subjects:     req.Subjects,
		StyleID:      req.StyleID,
		ComplexityID: req.ComplexityID,
		AudienceID:   req.AudienceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, usage.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've reached your page limit. Upgrade your plan to continue.", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create batch", nil)
		}
		return
	}

	c.Set("batchId", batch.ID)
	respond.JSON(c, http.StatusAccepted, gin.H{
		"batchId":   batch.ID,
		"pageCount": batch.PageCount,
	})
}

func (h *Handler) getBatch(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	batchID := c.Param("id")
	if batchID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "batch id is required", nil)
		return
	}

	batch, progress, batchPages, err := h.Svc.Get(c.Request.Context(), userID, batchID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusNotFound, "not_found", "batch not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch batch", nil)
		}
		return
	}

	c.Set("batchId", batch.ID)

	pageItems := make([]gin.H, 0, len(batchPages))
	for _, p := range batchPages {
		item := gin.H{
			"pageId":  p.ID,
			"subject": p.Subject,
			"status":  p.Status,
		}
		if p.Status == pages.StatusCompleted {
			item["imageUrl"] = p.ImageURL
			item["qualityScore"] = p.QualityScore
			item["isPublishable"] = p.IsPublishable
		}
		pageItems = append(pageItems, item)
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"id":        batch.ID,
		"title":     batch.Title,
		"theme":     batch.Theme,
		"createdAt": batch.CreatedAt,
		"progress":  progress,
		"pages":     pageItems,
	})
}

func (h *Handler) listBatches(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	list, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list batches", nil)
		return
	}

	resp := make([]gin.H, 0, len(list))
	for _, b := range list {
		resp = append(resp, gin.H{
			"batchId":   b.ID,
			"title":     b.Title,
			"theme":     b.Theme,
			"createdAt": b.CreatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}
