package pages

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"colorbook-backend/internal/pipeline"
	"colorbook-backend/internal/queue"
	"colorbook-backend/internal/shared/server/middleware"
)

type stubQueue struct {
	messages []queue.Message
	err      error
}

func (s *stubQueue) Send(ctx context.Context, msg queue.Message) error {
	_ = ctx
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func setupPagesRouter(t *testing.T) (*gin.Engine, *MemoryRepo, *stubQueue) {
	t.Helper()
	repo := NewMemoryRepo()
	queueStub := &stubQueue{}
	runner := &fakeRunner{result: pipeline.Result{Success: true, ImageURL: "https://img.example/p.png", TotalAttempts: 1}}
	svc := &Service{Repo: repo, Runner: runner, JobQueue: queueStub}
	handler := NewHandler(svc)

	router := gin.New()
	router.Use(middleware.Auth("dev"))
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return router, repo, queueStub
}

func addGuestHeader(req *http.Request) {
	req.Header.Set("X-Guest-Id", "test-guest")
}

func TestCreatePageAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, repo, queueStub := setupPagesRouter(t)

	payload := map[string]any{
		"subject":      "a friendly dragon",
		"styleId":      "bold-outline",
		"complexityId": "very-simple",
		"audienceId":   "toddler",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		PageID string `json:"pageId"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.PageID == "" {
		t.Fatalf("expected pageId, got empty")
	}
	if created.Status != StatusQueued {
		t.Fatalf("expected queued, got %s", created.Status)
	}

	page, err := repo.GetByID(context.Background(), created.PageID)
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if page.StyleID != "bold-outline" || page.ComplexityID != "very-simple" || page.AudienceID != "toddler" {
		t.Fatalf("parameters not stored: %+v", page)
	}
	if len(queueStub.messages) != 1 {
		t.Fatalf("expected 1 queued message, got %d", len(queueStub.messages))
	}
}

func TestCreatePageRequiresSubject(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, _, _ := setupPagesRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pages", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestGetPageScopedToOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, repo, _ := setupPagesRouter(t)
	page := seedPage(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pages/"+page.ID, nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// seeded page belongs to user-1, request is from guest:test-guest
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for foreign page, got %d", resp.Code)
	}
}

func TestGetCompletedPageIncludesOutcome(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, repo, _ := setupPagesRouter(t)
	page := seedPage(t, repo)
	page.UserID = "guest:test-guest"
	if err := repo.Create(context.Background(), page); err != nil {
		t.Fatalf("create page: %v", err)
	}
	if err := repo.UpdatePageResult(context.Background(), page.ID, map[string]any{"summary": "passed"}, "https://img.example/p.png", 91.5, true, 2, nil); err != nil {
		t.Fatalf("update result: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pages/"+page.ID, nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["status"] != StatusCompleted {
		t.Fatalf("expected completed, got %v", got["status"])
	}
	if got["imageUrl"] != "https://img.example/p.png" {
		t.Fatalf("expected image url, got %v", got["imageUrl"])
	}
	if got["qualityScore"] != 91.5 {
		t.Fatalf("expected quality score, got %v", got["qualityScore"])
	}
	if got["isPublishable"] != true {
		t.Fatalf("expected publishable, got %v", got["isPublishable"])
	}
}

func TestListPagesNewestFirst(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, repo, _ := setupPagesRouter(t)
	userID := "guest:test-guest"
	for _, id := range []string{"page-a", "page-b"} {
		page := seedPage(t, repo)
		page.ID = id
		page.UserID = userID
		if err := repo.Create(context.Background(), page); err != nil {
			t.Fatalf("create page: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pages", nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var payload []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(payload))
	}
}
