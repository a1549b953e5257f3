package exports

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, exp Export) error {
	const query = `
INSERT INTO exports (id, user_id, letter_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query, exp.ID, exp.UserID, exp.LetterID, string(exp.Status), exp.CreatedAt, exp.UpdatedAt)
	return err
}

const selectExport = `
SELECT id, user_id, letter_id, status, render_path, file_name, storage_key, size_bytes, overflow, error_message, created_at, updated_at
FROM exports`

func (r *PGRepo) Get(ctx context.Context, userID, exportID string) (Export, error) {
	return scanExport(r.DB.QueryRowContext(ctx, selectExport+`
WHERE id = $1 AND user_id = $2`, exportID, userID))
}

func (r *PGRepo) GetByID(ctx context.Context, exportID string) (Export, error) {
	return scanExport(r.DB.QueryRowContext(ctx, selectExport+`
WHERE id = $1`, exportID))
}

func (r *PGRepo) Update(ctx context.Context, exp Export) error {
	const query = `
UPDATE exports SET status = $2, render_path = $3, file_name = $4, storage_key = $5, size_bytes = $6,
  overflow = $7, error_message = $8, updated_at = $9
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		exp.ID,
		string(exp.Status),
		exp.RenderPath,
		exp.FileName,
		exp.StorageKey,
		exp.SizeBytes,
		exp.Overflow,
		exp.ErrorMessage,
		exp.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE exports SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanExport(row *sql.Row) (Export, error) {
	var exp Export
	var status string
	err := row.Scan(
		&exp.ID,
		&exp.UserID,
		&exp.LetterID,
		&status,
		&exp.RenderPath,
		&exp.FileName,
		&exp.StorageKey,
		&exp.SizeBytes,
		&exp.Overflow,
		&exp.ErrorMessage,
		&exp.CreatedAt,
		&exp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Export{}, ErrNotFound
		}
		return Export{}, err
	}
	exp.Status = Status(status)
	return exp, nil
}

var _ Repo = (*PGRepo)(nil)
