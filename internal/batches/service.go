package batches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"colorbook-backend/internal/pages"
	"colorbook-backend/internal/shared/telemetry"
)

const maxPagesPerBatch = 24

// PageCreator is the subset of the pages service a batch needs.
type PageCreator interface {
	Create(ctx context.Context, input pages.CreateInput) (pages.Page, error)
	ListByBatch(ctx context.Context, batchID string) ([]pages.Page, error)
}

// Service contains business logic for batches.
type Service struct {
	Repo  Repo
	Pages PageCreator
}

// CreateInput carries the parameters for a new batch.
type CreateInput struct {
	UserID       string
	Title        string
	Theme        string
	Subjects     []string
	StyleID      string
	ComplexityID string
	AudienceID   string
}

// Create stores the batch and enqueues one page per subject. Pages that fail
// to enqueue are skipped; the batch reflects the pages actually created.
func (s *Service) Create(ctx context.Context, input CreateInput) (Batch, error) {
	if input.UserID == "" || strings.TrimSpace(input.Title) == "" {
		return Batch{}, ErrInvalidInput
	}
	subjects := make([]string, 0, len(input.Subjects))
	for _, subject := range input.Subjects {
		if trimmed := strings.TrimSpace(subject); trimmed != "" {
			subjects = append(subjects, trimmed)
		}
	}
	if len(subjects) == 0 {
		return Batch{}, fmt.Errorf("at least one subject is required: %w", ErrInvalidInput)
	}
	if len(subjects) > maxPagesPerBatch {
		return Batch{}, fmt.Errorf("at most %d pages per batch: %w", maxPagesPerBatch, ErrInvalidInput)
	}
	if s.Repo == nil || s.Pages == nil {
		return Batch{}, errors.New("missing dependencies")
	}

	batch := Batch{
		ID:           uuid.NewString(),
		UserID:       input.UserID,
		Title:        strings.TrimSpace(input.Title),
		Theme:        strings.TrimSpace(input.Theme),
		StyleID:      input.StyleID,
		ComplexityID: input.ComplexityID,
		AudienceID:   input.AudienceID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, batch); err != nil {
		return Batch{}, err
	}

	created := 0
	for _, subject := range subjects {
		_, err := s.Pages.Create(ctx, pages.CreateInput{
			UserID:       input.UserID,
			BatchID:      batch.ID,
			Subject:      subject,
			StyleID:      input.StyleID,
			ComplexityID: input.ComplexityID,
			AudienceID:   input.AudienceID,
		})
		if err != nil {
			telemetry.Error("batch.page_create.failed", map[string]any{
				"batch_id": batch.ID,
				"subject":  subject,
				"error":    err.Error(),
			})
			continue
		}
		created++
	}
	if created == 0 {
		return Batch{}, errors.New("no pages could be created for batch")
	}
	if err := s.Repo.UpdatePageCount(ctx, batch.ID, created); err != nil {
		telemetry.Error("batch.page_count_update.failed", map[string]any{
			"batch_id": batch.ID,
			"error":    err.Error(),
		})
	}
	batch.PageCount = created
	return batch, nil
}

// Get returns a batch with its progress for a user.
func (s *Service) Get(ctx context.Context, userID, batchID string) (Batch, Progress, []pages.Page, error) {
	if userID == "" || batchID == "" {
		return Batch{}, Progress{}, nil, ErrInvalidInput
	}
	batch, err := s.Repo.GetByID(ctx, userID, batchID)
	if err != nil {
		return Batch{}, Progress{}, nil, err
	}
	batchPages, err := s.Pages.ListByBatch(ctx, batchID)
	if err != nil {
		return Batch{}, Progress{}, nil, err
	}
	return batch, summarize(batchPages), batchPages, nil
}

// List returns batches for a user ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Batch, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

func summarize(batchPages []pages.Page) Progress {
	progress := Progress{Total: len(batchPages)}
	for _, page := range batchPages {
		switch page.Status {
		case pages.StatusQueued:
			progress.Queued++
		case pages.StatusProcessing:
			progress.Processing++
		case pages.StatusCompleted:
			progress.Completed++
		case pages.StatusFailed:
			progress.Failed++
		}
	}
	switch {
	case progress.Total == 0:
		progress.Status = "empty"
	case progress.Completed == progress.Total:
		progress.Status = "completed"
	case progress.Completed+progress.Failed == progress.Total:
		progress.Status = "completed_with_failures"
	default:
		progress.Status = "processing"
	}
	return progress
}
