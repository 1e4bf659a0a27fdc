package references

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"colorbook-backend/internal/shared/server/middleware"
	"colorbook-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches reference image routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/references", h.upload)
	rg.POST("/references/from-s3", h.createFromS3)
	rg.POST("/references/presign", presignUpload)
	rg.GET("/references", h.list)
	rg.GET("/references/:id", h.get)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	ref, err := h.Svc.Upload(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "file must be a png, jpeg or webp image", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload reference image", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(ref))
}

type createFromS3Request struct {
	S3Key            string `json:"s3Key"`
	OriginalFileName string `json:"originalFileName"`
	ContentType      string `json:"contentType"`
	SizeBytes        int64  `json:"sizeBytes"`
}

func (h *Handler) createFromS3(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createFromS3Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ref, err := h.Svc.CreateFromS3(c.Request.Context(), userID, req.S3Key, req.OriginalFileName, req.ContentType, req.SizeBytes)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid reference image details", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create reference image", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(ref))
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	referenceID := c.Param("id")

	ref, err := h.Svc.Get(c.Request.Context(), userID, referenceID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "reference image not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "reference id is required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch reference image", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(ref))
}

func (h *Handler) list(c *gin.Context) {
	if isGuest, ok := c.Get("isGuest"); ok {
		if guest, ok2 := isGuest.(bool); ok2 && guest {
			respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to view reference images", nil)
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
	if limit > 50 {
		limit = 50
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	refs, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list reference images", nil)
		return
	}

	resp := make([]gin.H, 0, len(refs))
	for _, ref := range refs {
		resp = append(resp, toResponse(ref))
	}

	respond.JSON(c, http.StatusOK, resp)
}

func toResponse(ref Reference) gin.H {
	return gin.H{
		"referenceId": ref.ID,
		"fileName":    ref.FileName,
		"mimeType":    ref.MimeType,
		"sizeBytes":   ref.SizeBytes,
		"uploadedAt":  ref.CreatedAt,
	}
}
