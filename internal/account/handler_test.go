package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"colorbook-backend/internal/batches"
	"colorbook-backend/internal/pages"
	"colorbook-backend/internal/references"
)

func newClaimRouter(svc *Service) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Set("isGuest", false)
		c.Next()
	})
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return router
}

func TestClaimGuestMigratesData(t *testing.T) {
	gin.SetMode(gin.TestMode)

	pageRepo := pages.NewMemoryRepo()
	batchRepo := batches.NewMemoryRepo()
	referenceRepo := references.NewMemoryRepo()
	router := newClaimRouter(NewService(pageRepo, batchRepo, referenceRepo))

	guestID := "11111111-1111-1111-1111-111111111111"
	guestUserID := "guest:" + guestID

	page := pages.Page{
		ID:        "page-1",
		UserID:    guestUserID,
		Subject:   "a bunny in a garden",
		Status:    pages.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if err := pageRepo.Create(context.Background(), page); err != nil {
		t.Fatalf("create page: %v", err)
	}
	batch := batches.Batch{
		ID:        "batch-1",
		UserID:    guestUserID,
		Theme:     "garden animals",
		PageCount: 1,
		CreatedAt: time.Now().UTC(),
	}
	if err := batchRepo.Create(context.Background(), batch); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	ref := references.Reference{
		ID:        "ref-1",
		UserID:    guestUserID,
		FileName:  "bunny.png",
		MimeType:  "image/png",
		SizeBytes: 123,
		CreatedAt: time.Now().UTC(),
	}
	if err := referenceRepo.Create(context.Background(), ref); err != nil {
		t.Fatalf("create reference: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	migratedPages, err := pageRepo.ListByUser(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	if len(migratedPages) != 1 {
		t.Fatalf("expected 1 migrated page, got %d", len(migratedPages))
	}

	migratedBatches, err := batchRepo.ListByUser(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(migratedBatches) != 1 {
		t.Fatalf("expected 1 migrated batch, got %d", len(migratedBatches))
	}

	migratedRefs, err := referenceRepo.ListByUser(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list references: %v", err)
	}
	if len(migratedRefs) != 1 {
		t.Fatalf("expected 1 migrated reference, got %d", len(migratedRefs))
	}
}

func TestClaimGuestIdempotentAndIsolated(t *testing.T) {
	gin.SetMode(gin.TestMode)

	pageRepo := pages.NewMemoryRepo()
	batchRepo := batches.NewMemoryRepo()
	referenceRepo := references.NewMemoryRepo()
	router := newClaimRouter(NewService(pageRepo, batchRepo, referenceRepo))

	guestID := "22222222-2222-2222-2222-222222222222"
	guestUserID := "guest:" + guestID

	page := pages.Page{
		ID:        "page-2",
		UserID:    guestUserID,
		Subject:   "a castle on a hill",
		Status:    pages.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if err := pageRepo.Create(context.Background(), page); err != nil {
		t.Fatalf("create page: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req2.Header.Set("X-Guest-Id", guestID)
	resp2 := httptest.NewRecorder()
	router.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusOK {
		t.Fatalf("expected status 200 on idempotent call, got %d", resp2.Code)
	}

	otherPages, err := pageRepo.ListByUser(context.Background(), "user-2", 10, 0)
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	if len(otherPages) != 0 {
		t.Fatalf("expected no pages for other user, got %d", len(otherPages))
	}
}
