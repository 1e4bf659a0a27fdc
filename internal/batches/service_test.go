package batches

import (
	"context"
	"errors"
	"testing"

	"colorbook-backend/internal/pages"
)

type stubPages struct {
	created []pages.CreateInput
	listed  []pages.Page
	failOn  string
}

func (s *stubPages) Create(ctx context.Context, input pages.CreateInput) (pages.Page, error) {
	_ = ctx
	if s.failOn != "" && input.Subject == s.failOn {
		return pages.Page{}, errors.New("enqueue failed")
	}
	s.created = append(s.created, input)
	return pages.Page{ID: "page-" + input.Subject, BatchID: input.BatchID, Subject: input.Subject, Status: pages.StatusQueued}, nil
}

func (s *stubPages) ListByBatch(ctx context.Context, batchID string) ([]pages.Page, error) {
	_ = ctx
	_ = batchID
	return s.listed, nil
}

func TestCreateBatchEnqueuesPagePerSubject(t *testing.T) {
	pageStub := &stubPages{}
	svc := &Service{Repo: NewMemoryRepo(), Pages: pageStub}

	batch, err := svc.Create(context.Background(), CreateInput{
		UserID:       "user-1",
		Title:        "Ocean Friends",
		Theme:        "under the sea",
		Subjects:     []string{"a dolphin", " a seahorse ", ""},
		StyleID:      "classic",
		ComplexityID: "simple",
		AudienceID:   "kids",
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if batch.PageCount != 2 {
		t.Fatalf("expected 2 pages (blank subject dropped), got %d", batch.PageCount)
	}
	if len(pageStub.created) != 2 {
		t.Fatalf("expected 2 page creations, got %d", len(pageStub.created))
	}
	for _, input := range pageStub.created {
		if input.BatchID != batch.ID {
			t.Fatalf("page not linked to batch: %+v", input)
		}
		if input.StyleID != "classic" || input.AudienceID != "kids" {
			t.Fatalf("batch parameters not propagated: %+v", input)
		}
	}
	if pageStub.created[1].Subject != "a seahorse" {
		t.Fatalf("subject not trimmed: %q", pageStub.created[1].Subject)
	}
}

func TestCreateBatchSkipsFailedPages(t *testing.T) {
	pageStub := &stubPages{failOn: "a kraken"}
	svc := &Service{Repo: NewMemoryRepo(), Pages: pageStub}

	batch, err := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		Title:    "Sea Monsters",
		Subjects: []string{"a kraken", "a friendly whale"},
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if batch.PageCount != 1 {
		t.Fatalf("expected 1 page after skip, got %d", batch.PageCount)
	}
}

func TestCreateBatchValidation(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo(), Pages: &stubPages{}}

	if _, err := svc.Create(context.Background(), CreateInput{UserID: "u", Title: "t"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty subjects, got %v", err)
	}

	many := make([]string, maxPagesPerBatch+1)
	for i := range many {
		many[i] = "subject"
	}
	if _, err := svc.Create(context.Background(), CreateInput{UserID: "u", Title: "t", Subjects: many}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for oversized batch, got %v", err)
	}
}

func TestGetBatchProgress(t *testing.T) {
	repo := NewMemoryRepo()
	pageStub := &stubPages{listed: []pages.Page{
		{ID: "p1", Status: pages.StatusCompleted},
		{ID: "p2", Status: pages.StatusFailed},
		{ID: "p3", Status: pages.StatusProcessing},
	}}
	svc := &Service{Repo: repo, Pages: pageStub}

	batch, err := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		Title:    "Mixed",
		Subjects: []string{"one"},
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	_, progress, _, err := svc.Get(context.Background(), "user-1", batch.ID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if progress.Status != "processing" {
		t.Fatalf("expected processing, got %s", progress.Status)
	}
	if progress.Completed != 1 || progress.Failed != 1 || progress.Processing != 1 {
		t.Fatalf("progress counts wrong: %+v", progress)
	}

	pageStub.listed = []pages.Page{
		{ID: "p1", Status: pages.StatusCompleted},
		{ID: "p2", Status: pages.StatusFailed},
	}
	_, progress, _, err = svc.Get(context.Background(), "user-1", batch.ID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if progress.Status != "completed_with_failures" {
		t.Fatalf("expected completed_with_failures, got %s", progress.Status)
	}
}

func TestGetBatchScopedToOwner(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo, Pages: &stubPages{}}
	batch, err := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		Title:    "Mine",
		Subjects: []string{"one"},
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	if _, _, _, err := svc.Get(context.Background(), "someone-else", batch.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for other user, got %v", err)
	}
}
