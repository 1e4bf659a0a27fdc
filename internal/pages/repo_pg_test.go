package pages

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateInsertsPage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	page := Page{
		ID:           "page-1",
		UserID:       "user-1",
		Subject:      "a friendly dragon",
		StyleID:      "classic",
		ComplexityID: "simple",
		AudienceID:   "kids",
		AspectRatio:  "portrait",
		Temperature:  0.7,
		Provider:     "openai",
		Model:        "gpt-image-1",
		Status:       StatusQueued,
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO pages").
		WithArgs(
			page.ID,
			page.UserID,
			page.BatchID,
			page.Subject,
			page.StyleID,
			page.ComplexityID,
			page.AudienceID,
			page.AspectRatio,
			page.ResolutionTier,
			page.ReferenceImageURL,
			page.Temperature,
			page.Provider,
			page.Model,
			page.Status,
			sqlmock.AnyArg(), // result
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), page); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdatePageResultNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE pages").
		WillReturnResult(sqlmock.NewResult(0, 0))

	completedAt := time.Now().UTC()
	err = repo.UpdatePageResult(context.Background(), "missing", map[string]any{}, "url", 90, true, 1, &completedAt)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
