package pages

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const pageColumns = `
id, user_id, batch_id, subject, style_id, complexity_id, audience_id,
aspect_ratio, resolution_tier, reference_image_url, temperature, provider, model,
status, image_url, quality_score, is_publishable, total_attempts, result,
error_code, error_message, error_retryable, started_at, completed_at, created_at, updated_at`

// Create inserts a new page.
func (r *PGRepo) Create(ctx context.Context, page Page) error {
	const query = `
INSERT INTO pages (
	id, user_id, batch_id, subject, style_id, complexity_id, audience_id,
	aspect_ratio, resolution_tier, reference_image_url, temperature, provider, model,
	status, result, created_at
)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	resultPayload, err := marshalJSONB(page.Result)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
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
		resultPayload,
		page.CreatedAt,
	)
	return err
}

// GetByID returns a page by ID.
func (r *PGRepo) GetByID(ctx context.Context, pageID string) (Page, error) {
	query := `
SELECT ` + pageColumns + `
FROM pages
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, pageID)
	page, err := scanPage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Page{}, ErrNotFound
		}
		return Page{}, err
	}
	return page, nil
}

// UpdateStatusResultAndError updates status/result/error fields and timestamps.
func (r *PGRepo) UpdateStatusResultAndError(ctx context.Context, pageID, status string, result map[string]any, errorCode *string, errorMessage *string, errorRetryable *bool, startedAt *time.Time, completedAt *time.Time) error {
	const query = `
UPDATE pages
SET status = $1,
    result = COALESCE($2::jsonb, result),
    error_code = COALESCE($3::text, error_code),
    error_message = COALESCE($4::text, error_message),
    error_retryable = CASE
        WHEN $5::boolean IS NOT NULL THEN $5::boolean
        ELSE error_retryable
    END,
    started_at = CASE
        WHEN $6::timestamptz IS NOT NULL THEN $6::timestamptz
        WHEN $1 = 'processing' AND started_at IS NULL THEN now()
        ELSE started_at
    END,
    completed_at = CASE
        WHEN $7::timestamptz IS NOT NULL THEN $7::timestamptz
        WHEN ($1 = 'completed' OR $1 = 'failed') AND completed_at IS NULL THEN now()
        ELSE completed_at
    END,
    updated_at = now()
WHERE id = $8::uuid`

	var payload any
	var err error
	if result != nil {
		payload, err = json.Marshal(result)
		if err != nil {
			return err
		}
	}

	res, err := r.DB.ExecContext(ctx, query, status, payload, errorCode, errorMessage, errorRetryable, startedAt, completedAt, pageID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePageResult stores the successful outcome and marks the page completed.
func (r *PGRepo) UpdatePageResult(ctx context.Context, pageID string, result map[string]any, imageURL string, qualityScore float64, isPublishable bool, totalAttempts int, completedAt *time.Time) error {
	const query = `
UPDATE pages
SET result = $1::jsonb,
    image_url = $2,
    quality_score = $3,
    is_publishable = $4,
    total_attempts = $5,
    status = 'completed',
    completed_at = COALESCE($6::timestamptz, completed_at, now()),
    updated_at = now()
WHERE id = $7::uuid`

	payload, err := marshalJSONB(result)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, payload, imageURL, qualityScore, isPublishable, totalAttempts, completedAt, pageID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser lists pages for a user ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Page, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT ` + pageColumns + `
FROM pages
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, page)
	}
	return out, rows.Err()
}

// ListByBatch lists all pages in a batch ordered oldest-first.
func (r *PGRepo) ListByBatch(ctx context.Context, batchID string) ([]Page, error) {
	query := `
SELECT ` + pageColumns + `
FROM pages
WHERE batch_id = $1 AND deleted_at IS NULL
ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, page)
	}
	return out, rows.Err()
}

// ClaimGuest reassigns a guest user's pages to an authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	const query = `
UPDATE pages
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (Page, error) {
	var p Page
	var batchID sql.NullString
	var resolutionTier sql.NullString
	var referenceImageURL sql.NullString
	var imageURL sql.NullString
	var qualityScore sql.NullFloat64
	var isPublishable sql.NullBool
	var totalAttempts sql.NullInt64
	var result sql.NullString
	var errorCode sql.NullString
	var errorMessage sql.NullString
	var errorRetryable sql.NullBool
	var startedAt sql.NullTime
	var completedAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&batchID,
		&p.Subject,
		&p.StyleID,
		&p.ComplexityID,
		&p.AudienceID,
		&p.AspectRatio,
		&resolutionTier,
		&referenceImageURL,
		&p.Temperature,
		&p.Provider,
		&p.Model,
		&p.Status,
		&imageURL,
		&qualityScore,
		&isPublishable,
		&totalAttempts,
		&result,
		&errorCode,
		&errorMessage,
		&errorRetryable,
		&startedAt,
		&completedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return Page{}, err
	}
	if batchID.Valid {
		p.BatchID = batchID.String
	}
	if resolutionTier.Valid {
		p.ResolutionTier = resolutionTier.String
	}
	if referenceImageURL.Valid {
		p.ReferenceImageURL = referenceImageURL.String
	}
	if imageURL.Valid {
		p.ImageURL = imageURL.String
	}
	if qualityScore.Valid {
		p.QualityScore = qualityScore.Float64
	}
	if isPublishable.Valid {
		p.IsPublishable = isPublishable.Bool
	}
	if totalAttempts.Valid {
		p.TotalAttempts = int(totalAttempts.Int64)
	}
	if result.Valid {
		p.Result = map[string]any{}
		if err := json.Unmarshal([]byte(result.String), &p.Result); err != nil {
			p.Result = nil
		}
	}
	if errorCode.Valid {
		p.ErrorCode = errorCode.String
	}
	if errorMessage.Valid {
		p.ErrorMessage = &errorMessage.String
	}
	if errorRetryable.Valid {
		p.ErrorRetryable = errorRetryable.Bool
	}
	if startedAt.Valid {
		p.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return p, nil
}

func marshalJSONB(value any) ([]byte, error) {
	if value == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(value)
}
