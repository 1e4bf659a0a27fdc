package references

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"colorbook-backend/internal/shared/storage/object"
)

var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
}

// Service contains business logic for reference images.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
}

// Upload saves the image to object storage and records the reference.
func (s *Service) Upload(ctx context.Context, userID, fileName string, r io.Reader) (Reference, error) {
	if fileName == "" {
		return Reference{}, ErrInvalidInput
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return Reference{}, err
	}

	if _, ok := allowedImageTypes[mimeType]; !ok {
		return Reference{}, ErrInvalidInput
	}

	ref := Reference{
		ID:               uuid.NewString(),
		UserID:           userID,
		FileName:         fileName,
		OriginalFilename: fileName,
		MimeType:         mimeType,
		ContentType:      mimeType,
		SizeBytes:        size,
		StorageProvider:  "local",
		StorageKey:       storageKey,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, ref); err != nil {
		return Reference{}, err
	}

	return ref, nil
}

// CreateFromS3 records a reference image that was uploaded directly to S3 via
// a presigned URL.
func (s *Service) CreateFromS3(ctx context.Context, userID, s3Key, originalFileName, contentType string, sizeBytes int64) (Reference, error) {
	s3Key = strings.TrimSpace(s3Key)
	originalFileName = strings.TrimSpace(originalFileName)
	contentType = strings.TrimSpace(contentType)

	if s3Key == "" || originalFileName == "" || sizeBytes <= 0 {
		return Reference{}, ErrInvalidInput
	}
	if _, ok := allowedImageTypes[contentType]; !ok {
		return Reference{}, ErrInvalidInput
	}

	ref := Reference{
		ID:               uuid.NewString(),
		UserID:           userID,
		FileName:         originalFileName,
		OriginalFilename: originalFileName,
		MimeType:         contentType,
		ContentType:      contentType,
		SizeBytes:        sizeBytes,
		StorageProvider:  "s3",
		StorageKey:       s3Key,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, ref); err != nil {
		return Reference{}, err
	}

	return ref, nil
}

// Get returns a reference image owned by the user.
func (s *Service) Get(ctx context.Context, userID, referenceID string) (Reference, error) {
	if userID == "" {
		return Reference{}, errors.New("user id required")
	}
	if referenceID == "" {
		return Reference{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, referenceID)
}

// List returns reference images for a user, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Reference, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Open streams the underlying image bytes for a reference the user owns.
func (s *Service) Open(ctx context.Context, userID, referenceID string) (io.ReadCloser, Reference, error) {
	ref, err := s.Get(ctx, userID, referenceID)
	if err != nil {
		return nil, Reference{}, err
	}
	rc, err := s.Store.Open(ctx, ref.StorageKey)
	if err != nil {
		return nil, Reference{}, err
	}
	return rc, ref, nil
}
