package references

import "context"

// Repo defines persistence operations for reference images.
type Repo interface {
	Create(ctx context.Context, ref Reference) error
	GetByID(ctx context.Context, userID, referenceID string) (Reference, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Reference, error)
}
