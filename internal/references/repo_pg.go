package references

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new reference image record.
func (r *PGRepo) Create(ctx context.Context, ref Reference) error {
	const query = `
INSERT INTO reference_images (
    id, user_id, file_name, original_filename, mime_type, content_type,
    size_bytes, storage_provider, storage_key, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	originalName := ref.OriginalFilename
	if originalName == "" {
		originalName = ref.FileName
	}
	contentType := ref.ContentType
	if contentType == "" {
		contentType = ref.MimeType
	}
	storageProvider := ref.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}

	_, err := r.DB.ExecContext(ctx, query,
		ref.ID,
		ref.UserID,
		ref.FileName,
		originalName,
		ref.MimeType,
		contentType,
		ref.SizeBytes,
		storageProvider,
		ref.StorageKey,
		ref.CreatedAt,
	)
	return err
}

// GetByID fetches a reference image by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, referenceID string) (Reference, error) {
	const query = `
SELECT id, user_id, file_name, original_filename, mime_type, content_type, size_bytes, storage_provider, storage_key, created_at
FROM reference_images
WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
LIMIT 1`
	var ref Reference
	var originalName sql.NullString
	var contentType sql.NullString
	var storageProvider sql.NullString
	err := r.DB.QueryRowContext(ctx, query, userID, referenceID).Scan(
		&ref.ID,
		&ref.UserID,
		&ref.FileName,
		&originalName,
		&ref.MimeType,
		&contentType,
		&ref.SizeBytes,
		&storageProvider,
		&ref.StorageKey,
		&ref.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reference{}, ErrNotFound
		}
		return Reference{}, err
	}
	if originalName.Valid {
		ref.OriginalFilename = originalName.String
	}
	if contentType.Valid {
		ref.ContentType = contentType.String
	}
	if storageProvider.Valid {
		ref.StorageProvider = storageProvider.String
	}
	return ref, nil
}

// ListByUser lists reference images ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Reference, error) {
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
SELECT id, user_id, file_name, original_filename, mime_type, content_type, size_bytes, storage_provider, storage_key, created_at
FROM reference_images
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reference
	for rows.Next() {
		var ref Reference
		var originalName sql.NullString
		var contentType sql.NullString
		var storageProvider sql.NullString
		if err := rows.Scan(
			&ref.ID,
			&ref.UserID,
			&ref.FileName,
			&originalName,
			&ref.MimeType,
			&contentType,
			&ref.SizeBytes,
			&storageProvider,
			&ref.StorageKey,
			&ref.CreatedAt,
		); err != nil {
			return nil, err
		}
		if originalName.Valid {
			ref.OriginalFilename = originalName.String
		}
		if contentType.Valid {
			ref.ContentType = contentType.String
		}
		if storageProvider.Valid {
			ref.StorageProvider = storageProvider.String
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// ClaimGuest reassigns a guest user's reference images to an authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	const query = `
UPDATE reference_images
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
