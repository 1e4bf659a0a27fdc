package pages

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores pages in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Page
	byUser  map[string][]string
	byBatch map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Page),
		byUser:  make(map[string][]string),
		byBatch: make(map[string][]string),
	}
}

// Create stores the page.
func (r *MemoryRepo) Create(ctx context.Context, page Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[page.ID] = page
	r.byUser[page.UserID] = append(r.byUser[page.UserID], page.ID)
	if page.BatchID != "" {
		r.byBatch[page.BatchID] = append(r.byBatch[page.BatchID], page.ID)
	}
	return nil
}

// GetByID returns a page by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, pageID string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	page, ok := r.byID[pageID]
	if !ok {
		return Page{}, ErrNotFound
	}
	return page, nil
}

// UpdateStatusResultAndError updates status/result/error fields and timestamps.
func (r *MemoryRepo) UpdateStatusResultAndError(ctx context.Context, pageID, status string, result map[string]any, errorCode *string, errorMessage *string, errorRetryable *bool, startedAt *time.Time, completedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.byID[pageID]
	if !ok {
		return ErrNotFound
	}
	page.Status = status
	if result != nil {
		page.Result = result
	}
	if errorCode != nil {
		page.ErrorCode = *errorCode
	}
	if errorMessage != nil {
		page.ErrorMessage = errorMessage
	}
	if errorRetryable != nil {
		page.ErrorRetryable = *errorRetryable
	}
	if startedAt != nil {
		page.StartedAt = startedAt
	} else if status == StatusProcessing && page.StartedAt == nil {
		now := time.Now().UTC()
		page.StartedAt = &now
	}
	if completedAt != nil {
		page.CompletedAt = completedAt
	} else if (status == StatusCompleted || status == StatusFailed) && page.CompletedAt == nil {
		now := time.Now().UTC()
		page.CompletedAt = &now
	}
	page.UpdatedAt = time.Now().UTC()
	r.byID[pageID] = page
	return nil
}

// UpdatePageResult stores the successful outcome and marks the page completed.
func (r *MemoryRepo) UpdatePageResult(ctx context.Context, pageID string, result map[string]any, imageURL string, qualityScore float64, isPublishable bool, totalAttempts int, completedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.byID[pageID]
	if !ok {
		return ErrNotFound
	}
	page.Status = StatusCompleted
	page.Result = result
	page.ImageURL = imageURL
	page.QualityScore = qualityScore
	page.IsPublishable = isPublishable
	page.TotalAttempts = totalAttempts
	if completedAt != nil {
		page.CompletedAt = completedAt
	} else {
		now := time.Now().UTC()
		page.CompletedAt = &now
	}
	page.UpdatedAt = time.Now().UTC()
	r.byID[pageID] = page
	return nil
}

// ListByUser returns pages for a user, newest first, with limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Page, error) {
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
	ids := r.byUser[userID]
	out := make([]Page, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []Page{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// ListByBatch returns all pages in a batch ordered oldest-first.
func (r *MemoryRepo) ListByBatch(ctx context.Context, batchID string) ([]Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ids := r.byBatch[batchID]
	out := make([]Page, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ClaimGuest reassigns a guest user's pages to an authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byUser[guestUserID]
	for _, id := range ids {
		page := r.byID[id]
		page.UserID = authedUserID
		r.byID[id] = page
	}
	r.byUser[authedUserID] = append(r.byUser[authedUserID], ids...)
	delete(r.byUser, guestUserID)
	return len(ids), nil
}

var _ Repo = (*MemoryRepo)(nil)
