package batches

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a batch.
func (r *PGRepo) Create(ctx context.Context, batch Batch) error {
	const query = `
INSERT INTO batches (
    id, user_id, title, theme, style_id, complexity_id, audience_id, page_count, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		batch.ID,
		batch.UserID,
		batch.Title,
		batch.Theme,
		batch.StyleID,
		batch.ComplexityID,
		batch.AudienceID,
		batch.PageCount,
		batch.CreatedAt,
	)
	return err
}

// GetByID returns a batch by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, batchID string) (Batch, error) {
	const query = `
SELECT id, user_id, title, theme, style_id, complexity_id, audience_id, page_count, created_at
FROM batches
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	var batch Batch
	err := r.DB.QueryRowContext(ctx, query, batchID).Scan(
		&batch.ID,
		&batch.UserID,
		&batch.Title,
		&batch.Theme,
		&batch.StyleID,
		&batch.ComplexityID,
		&batch.AudienceID,
		&batch.PageCount,
		&batch.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Batch{}, ErrNotFound
		}
		return Batch{}, err
	}
	if batch.UserID != userID {
		return Batch{}, ErrForbidden
	}
	return batch, nil
}

// ListByUser lists batches ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Batch, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, title, theme, style_id, complexity_id, audience_id, page_count, created_at
FROM batches
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var batch Batch
		if err := rows.Scan(
			&batch.ID,
			&batch.UserID,
			&batch.Title,
			&batch.Theme,
			&batch.StyleID,
			&batch.ComplexityID,
			&batch.AudienceID,
			&batch.PageCount,
			&batch.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, batch)
	}
	return out, rows.Err()
}

// UpdatePageCount sets the number of pages actually created for a batch.
func (r *PGRepo) UpdatePageCount(ctx context.Context, batchID string, count int) error {
	const query = `
UPDATE batches
SET page_count = $1
WHERE id = $2 AND deleted_at IS NULL`
	_, err := r.DB.ExecContext(ctx, query, count, batchID)
	return err
}

// ClaimGuest reassigns a guest user's batches to an authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	const query = `
UPDATE batches
SET user_id = $1
WHERE user_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	updated, _ := res.RowsAffected()
	return int(updated), nil
}

var _ Repo = (*PGRepo)(nil)
