package users

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, name, picture, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  name = EXCLUDED.name,
  picture = EXCLUDED.picture,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query, user.ID, user.Email, user.FullName, user.PictureURL)
	return err
}

const selectUser = `
SELECT id, email, name, picture, location, created_at, updated_at
FROM users`

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, selectUser+"\nWHERE id = $1\nLIMIT 1", userID))
}

func (r *PGRepo) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (User, error) {
	const query = `
UPDATE users SET
  name = COALESCE($2, name),
  location = COALESCE($3, location),
  updated_at = now()
WHERE id = $1
RETURNING id, email, name, picture, location, created_at, updated_at`
	return scanUser(r.DB.QueryRowContext(ctx, query, userID, nullableString(update.FullName), nullableString(update.Location)))
}

func scanUser(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PictureURL,
		&user.Location,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

var _ Repo = (*PGRepo)(nil)
