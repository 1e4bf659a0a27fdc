package batches

import "context"

// Repo defines persistence operations for batches.
type Repo interface {
	Create(ctx context.Context, batch Batch) error
	GetByID(ctx context.Context, userID, batchID string) (Batch, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Batch, error)
	UpdatePageCount(ctx context.Context, batchID string, count int) error
}
