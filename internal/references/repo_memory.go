package references

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores reference images in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Reference
	byUser map[string][]Reference
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Reference),
		byUser: make(map[string][]Reference),
	}
}

// Create stores the reference image record.
func (r *MemoryRepo) Create(ctx context.Context, ref Reference) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[ref.ID] = ref
	r.byUser[ref.UserID] = append(r.byUser[ref.UserID], ref)
	return nil
}

// GetByID fetches a reference image by ID for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, referenceID string) (Reference, error) {
	if err := ctx.Err(); err != nil {
		return Reference{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.byID[referenceID]
	if !ok || ref.UserID != userID {
		return Reference{}, ErrNotFound
	}
	return ref, nil
}

// ListByUser returns reference images for a user, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Reference, error) {
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
	userRefs := r.byUser[userID]
	out := make([]Reference, len(userRefs))
	copy(out, userRefs)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []Reference{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// ClaimGuest reassigns a guest user's reference images to an authenticated user.
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
