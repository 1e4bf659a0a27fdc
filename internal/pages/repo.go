package pages

import (
	"context"
	"time"
)

// Repo defines persistence operations for pages.
type Repo interface {
	Create(ctx context.Context, page Page) error
	GetByID(ctx context.Context, pageID string) (Page, error)
	UpdateStatusResultAndError(ctx context.Context, pageID, status string, result map[string]any, errorCode *string, errorMessage *string, errorRetryable *bool, startedAt *time.Time, completedAt *time.Time) error
	UpdatePageResult(ctx context.Context, pageID string, result map[string]any, imageURL string, qualityScore float64, isPublishable bool, totalAttempts int, completedAt *time.Time) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Page, error)
	ListByBatch(ctx context.Context, batchID string) ([]Page, error)
}
