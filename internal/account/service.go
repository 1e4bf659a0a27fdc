package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"colorbook-backend/internal/batches"
	"colorbook-backend/internal/pages"
	"colorbook-backend/internal/references"
)

type Service struct {
	PageRepo      pages.Repo
	BatchRepo     batches.Repo
	ReferenceRepo references.Repo
}

type ClaimResult struct {
	MigratedPages      int `json:"migratedPages"`
	MigratedBatches    int `json:"migratedBatches"`
	MigratedReferences int `json:"migratedReferences"`
}

func NewService(pageRepo pages.Repo, batchRepo batches.Repo, referenceRepo references.Repo) *Service {
	return &Service{PageRepo: pageRepo, BatchRepo: batchRepo, ReferenceRepo: referenceRepo}
}

func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(authedUserID) == "" {
		return ClaimResult{}, errors.New("guestUserID and authedUserID are required")
	}

	if pagePG, ok := s.PageRepo.(*pages.PGRepo); ok && pagePG != nil && pagePG.DB != nil {
		return claimWithTx(ctx, pagePG.DB, guestUserID, authedUserID)
	}

	pageCount, err := claimOne(ctx, s.PageRepo, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	batchCount, err := claimOne(ctx, s.BatchRepo, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	referenceCount, err := claimOne(ctx, s.ReferenceRepo, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{
		MigratedPages:      pageCount,
		MigratedBatches:    batchCount,
		MigratedReferences: referenceCount,
	}, nil
}

func claimWithTx(ctx context.Context, db *sql.DB, guestUserID, authedUserID string) (ClaimResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ClaimResult{}, err
	}
	defer tx.Rollback()

	pageRes, err := tx.ExecContext(ctx, `UPDATE pages SET user_id = $1 WHERE user_id = $2 AND deleted_at IS NULL`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	pageCount, _ := pageRes.RowsAffected()

	batchRes, err := tx.ExecContext(ctx, `UPDATE batches SET user_id = $1 WHERE user_id = $2 AND deleted_at IS NULL`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	batchCount, _ := batchRes.RowsAffected()

	referenceRes, err := tx.ExecContext(ctx, `UPDATE reference_images SET user_id = $1 WHERE user_id = $2 AND deleted_at IS NULL`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	referenceCount, _ := referenceRes.RowsAffected()

	if err := tx.Commit(); err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{
		MigratedPages:      int(pageCount),
		MigratedBatches:    int(batchCount),
		MigratedReferences: int(referenceCount),
	}, nil
}

type guestClaimer interface {
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}

func claimOne(ctx context.Context, repo any, guestUserID, authedUserID string) (int, error) {
	if claimer, ok := repo.(guestClaimer); ok {
		return claimer.ClaimGuest(ctx, guestUserID, authedUserID)
	}
	return 0, errors.New("repo does not support claim")
}
