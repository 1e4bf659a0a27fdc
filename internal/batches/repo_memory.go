package batches

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores batches in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Batch
	byUser map[string][]Batch
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Batch),
		byUser: make(map[string][]Batch),
	}
}

// Create stores the batch.
func (r *MemoryRepo) Create(ctx context.Context, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[batch.ID] = batch
	r.byUser[batch.UserID] = append(r.byUser[batch.UserID], batch)
	return nil
}

// GetByID returns a batch by ID for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, batchID string) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	batch, ok := r.byID[batchID]
	if !ok {
		return Batch{}, ErrNotFound
	}
	if batch.UserID != userID {
		return Batch{}, ErrForbidden
	}
	return batch, nil
}

// ListByUser returns batches for a user, newest first, with limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	userBatches := r.byUser[userID]
	out := make([]Batch, len(userBatches))
	copy(out, userBatches)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []Batch{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// UpdatePageCount sets the number of pages actually created for a batch.
func (r *MemoryRepo) UpdatePageCount(ctx context.Context, batchID string, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.byID[batchID]
	if !ok {
		return ErrNotFound
	}
	batch.PageCount = count
	r.byID[batchID] = batch
	userBatches := r.byUser[batch.UserID]
	for i := range userBatches {
		if userBatches[i].ID == batchID {
			userBatches[i].PageCount = count
		}
	}
	return nil
}

// ClaimGuest reassigns a guest user's batches to an authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	claimed := r.byUser[guestUserID]
	for i := range claimed {
		claimed[i].UserID = authedUserID
		r.byID[claimed[i].ID] = claimed[i]
	}
	r.byUser[authedUserID] = append(r.byUser[authedUserID], claimed...)
	delete(r.byUser, guestUserID)
	return len(claimed), nil
}

var _ Repo = (*MemoryRepo)(nil)
