package letters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo stores letters in Postgres with the content as JSONB.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, letter Letter) error {
	content, err := json.Marshal(letter.Content)
	if err != nil {
		return fmt.Errorf("encode letter content: %w", err)
	}
	const query = `
INSERT INTO letters (id, user_id, name, job_title, company_name, job_description, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.DB.ExecContext(ctx, query,
		letter.ID,
		letter.UserID,
		letter.Name,
		letter.JobTitle,
		letter.CompanyName,
		letter.JobDescription,
		content,
		letter.CreatedAt,
		letter.UpdatedAt,
	)
	return err
}

const selectLetter = `
SELECT id, user_id, name, job_title, company_name, job_description, content, created_at, updated_at
FROM letters`

func (r *PGRepo) Get(ctx context.Context, userID, letterID string) (Letter, error) {
	row := r.DB.QueryRowContext(ctx, selectLetter+`
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, letterID, userID)
	letter, err := scanLetter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Letter{}, ErrNotFound
	}
	return letter, err
}

func (r *PGRepo) Update(ctx context.Context, letter Letter) error {
	content, err := json.Marshal(letter.Content)
	if err != nil {
		return fmt.Errorf("encode letter content: %w", err)
	}
	const query = `
UPDATE letters SET name = $3, job_title = $4, company_name = $5, job_description = $6, content = $7, updated_at = $8
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query,
		letter.ID,
		letter.UserID,
		letter.Name,
		letter.JobTitle,
		letter.CompanyName,
		letter.JobDescription,
		content,
		letter.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PGRepo) Delete(ctx context.Context, userID, letterID string) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE letters SET deleted_at = now()
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, letterID, userID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Letter, error) {
	rows, err := r.DB.QueryContext(ctx, selectLetter+`
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Letter{}
	for rows.Next() {
		letter, err := scanLetter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, letter)
	}
	return out, rows.Err()
}

func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE letters SET user_id = $1 WHERE user_id = $2 AND deleted_at IS NULL`, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLetter(s scanner) (Letter, error) {
	var letter Letter
	var content []byte
	if err := s.Scan(
		&letter.ID,
		&letter.UserID,
		&letter.Name,
		&letter.JobTitle,
		&letter.CompanyName,
		&letter.JobDescription,
		&content,
		&letter.CreatedAt,
		&letter.UpdatedAt,
	); err != nil {
		return Letter{}, err
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &letter.Content); err != nil {
			return Letter{}, fmt.Errorf("decode letter content: %w", err)
		}
	}
	return letter, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
