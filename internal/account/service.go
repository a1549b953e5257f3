package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"coverletter-backend/internal/exports"
	"coverletter-backend/internal/letters"
	"coverletter-backend/internal/shared/telemetry"
)

// ErrInvalidGuestID is returned for guest ids that are not UUIDs.
var ErrInvalidGuestID = errors.New("invalid guest id")

// GuestUserID turns the raw X-Guest-Id value into the owner id guests are
// stored under.
func GuestUserID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if _, err := uuid.Parse(raw); err != nil {
		return "", ErrInvalidGuestID
	}
	return "guest:" + raw, nil
}

// UsageTransferer folds a guest's quota consumption into the claiming account.
type UsageTransferer interface {
	Transfer(ctx context.Context, fromUserID, toUserID string) error
}

type Service struct {
	Letters letters.Repo
	Exports exports.Repo
	Usage   UsageTransferer
}

type ClaimResult struct {
	MigratedLetters int `json:"migratedLetters"`
	MigratedExports int `json:"migratedExports"`
}

func NewService(letterRepo letters.Repo, exportRepo exports.Repo, usage UsageTransferer) *Service {
	return &Service{Letters: letterRepo, Exports: exportRepo, Usage: usage}
}

// ClaimGuest moves everything a guest created to the signed-in account.
// Claiming twice is a no-op.
func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(authedUserID) == "" {
		return ClaimResult{}, errors.New("guestUserID and authedUserID are required")
	}

	var (
		result ClaimResult
		err    error
	)
	if db := sharedDB(s.Letters, s.Exports); db != nil {
		result, err = claimWithTx(ctx, db, guestUserID, authedUserID)
	} else {
		result, err = s.claimEach(ctx, guestUserID, authedUserID)
	}
	if err != nil {
		return ClaimResult{}, err
	}

	if s.Usage != nil {
		if err := s.Usage.Transfer(ctx, guestUserID, authedUserID); err != nil {
			return ClaimResult{}, err
		}
	}
	telemetry.Info("account.guest_claimed", map[string]any{
		"user_id":          authedUserID,
		"guest_user_id":    guestUserID,
		"migrated_letters": result.MigratedLetters,
		"migrated_exports": result.MigratedExports,
	})
	return result, nil
}

func (s *Service) claimEach(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	var result ClaimResult
	if s.Letters != nil {
		n, err := s.Letters.ClaimGuest(ctx, guestUserID, authedUserID)
		if err != nil {
			return ClaimResult{}, err
		}
		result.MigratedLetters = n
	}
	if s.Exports != nil {
		n, err := s.Exports.ClaimGuest(ctx, guestUserID, authedUserID)
		if err != nil {
			return ClaimResult{}, err
		}
		result.MigratedExports = n
	}
	return result, nil
}

// sharedDB returns the database both repos live in, if they are Postgres.
func sharedDB(letterRepo letters.Repo, exportRepo exports.Repo) *sql.DB {
	letterPG, ok := letterRepo.(*letters.PGRepo)
	if !ok || letterPG == nil || letterPG.DB == nil {
		return nil
	}
	exportPG, ok := exportRepo.(*exports.PGRepo)
	if !ok || exportPG == nil || exportPG.DB != letterPG.DB {
		return nil
	}
	return letterPG.DB
}

func claimWithTx(ctx context.Context, db *sql.DB, guestUserID, authedUserID string) (ClaimResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ClaimResult{}, err
	}
	defer tx.Rollback()

	letterRes, err := tx.ExecContext(ctx, `UPDATE letters SET user_id = $1 WHERE user_id = $2 AND deleted_at IS NULL`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	letterCount, _ := letterRes.RowsAffected()

	exportRes, err := tx.ExecContext(ctx, `UPDATE exports SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	exportCount, _ := exportRes.RowsAffected()

	if err := tx.Commit(); err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{MigratedLetters: int(letterCount), MigratedExports: int(exportCount)}, nil
}
