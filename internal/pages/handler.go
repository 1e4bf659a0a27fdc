package pages

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"colorbook-backend/internal/shared/server/middleware"
	"colorbook-backend/internal/shared/server/respond"
	"colorbook-backend/internal/usage"
)

// Handler wires HTTP handlers to the pages service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches page routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pages", h.createPage)
	rg.GET("/pages", h.listPages)
	rg.GET("/pages/:id", h.getPage)
	rg.POST("/pages/:id/retry", h.retryPage)
}

type createPageRequest struct {
	Subject           string  `json:"subject" binding:"required"`
	StyleID           string  `json:"styleId"`
	ComplexityID      string  `json:"complexityId"`
	AudienceID        string  `json:"audienceId"`
	AspectRatio       string  `json:"aspectRatio"`
	ResolutionTier    string  `json:"resolutionTier"`
	ReferenceImageURL string  `json:"referenceImageUrl"`
	Temperature       float64 `json:"temperature"`
	BatchID           string  `json:"batchId"`
}

func (h *Handler) createPage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "subject is required", nil)
		return
	}

	page, err := h.Svc.Create(c.Request.Context(), CreateInput{
		UserID:            userID,
		BatchID:           req.BatchID,
		Subject:           req.Subject,
		StyleID:           req.StyleID,
		ComplexityID:      req.ComplexityID,
		AudienceID:        req.AudienceID,
		AspectRatio:       req.AspectRatio,
		ResolutionTier:    req.ResolutionTier,
		ReferenceImageURL: req.ReferenceImageURL,
		Temperature:       req.Temperature,
	})
	if err != nil {
		switch {
		case errors.Is(err, usage.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've reached your page limit. Upgrade your plan to continue.", []map[string]string{
				{"field": "usage", "issue": "limit_reached"},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start page generation", nil)
		}
		return
	}

	c.Set("pageId", page.ID)
	if page.BatchID != "" {
		c.Set("batchId", page.BatchID)
	}
	respond.JSON(c, http.StatusAccepted, gin.H{
		"pageId": page.ID,
		"status": page.Status,
	})
}

func (h *Handler) getPage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	pageID := c.Param("id")
	if pageID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "page id is required", nil)
		return
	}

	page, err := h.Svc.Get(c.Request.Context(), pageID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "page not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch page", nil)
		}
		return
	}
	if page.UserID != userID {
		respond.Error(c, http.StatusNotFound, "not_found", "page not found", nil)
		return
	}
	c.Set("pageId", page.ID)

	resp := gin.H{
		"id":     page.ID,
		"status": page.Status,
	}
	if page.Status == StatusCompleted {
		resp["imageUrl"] = page.ImageURL
		resp["qualityScore"] = page.QualityScore
		resp["isPublishable"] = page.IsPublishable
		resp["totalAttempts"] = page.TotalAttempts
		if page.Result != nil {
			resp["result"] = page.Result
		}
	}
	if page.Status == StatusFailed {
		resp["errorCode"] = page.ErrorCode
		resp["retryable"] = page.ErrorRetryable
		if page.ErrorMessage != nil {
			resp["errorMessage"] = *page.ErrorMessage
		}
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) listPages(c *gin.Context) {
	if isGuest, ok := c.Get("isGuest"); ok {
		if guest, ok2 := isGuest.(bool); ok2 && guest {
			respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to view history", nil)
			return
		}
	}

	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	list, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list pages", nil)
		return
	}

	resp := make([]gin.H, 0, len(list))
	for _, p := range list {
		item := gin.H{
			"pageId":    p.ID,
			"subject":   p.Subject,
			"status":    p.Status,
			"createdAt": p.CreatedAt,
		}
		if p.BatchID != "" {
			item["batchId"] = p.BatchID
		}
		if p.Status == StatusCompleted {
			item["imageUrl"] = p.ImageURL
			item["qualityScore"] = p.QualityScore
			item["isPublishable"] = p.IsPublishable
		}
		resp = append(resp, item)
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) retryPage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	pageID := c.Param("id")
	if pageID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "page id is required", nil)
		return
	}

	page, err := h.Svc.Retry(c.Request.Context(), userID, pageID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "page not found", nil)
		case errors.Is(err, ErrRetryRequired):
			respond.Error(c, http.StatusConflict, "not_retryable", "page cannot be retried", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to retry page", nil)
		}
		return
	}

	c.Set("pageId", page.ID)
	c.Set("statusTransition", "failed->queued")
	respond.JSON(c, http.StatusAccepted, gin.H{
		"pageId": page.ID,
		"status": page.Status,
	})
}
