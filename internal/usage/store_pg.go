package usage

import (
	"context"
	"database/sql"
	"errors"
)

type pgStore struct {
	DB     *sql.DB
	policy Policy
}

func newPGStore(db *sql.DB, policy Policy) *pgStore {
	return &pgStore{DB: db, policy: policy}
}

func (s *pgStore) EnsurePeriod(ctx context.Context, userID string) (u Usage, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	u, err = s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) Consume(ctx context.Context, userID string, n int) (u Usage, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	u, err = s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Usage{}, err
	}
	if n > 0 {
		if u.Used+n > u.Limit {
			err = ErrLimitReached
			return u, err
		}
		u.Used += n
		if _, err = tx.ExecContext(ctx, `UPDATE usage SET used = $1 WHERE user_id = $2`, u.Used, userID); err != nil {
			return Usage{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) Reset(ctx context.Context, userID string) (Usage, error) {
	u := s.policy.fresh()
	if _, err := s.DB.ExecContext(ctx, `
INSERT INTO usage (user_id, plan, limit_amount, used, resets_at)
VALUES ($1, $2, $3, 0, $4)
ON CONFLICT (user_id) DO UPDATE SET used = 0, limit_amount = EXCLUDED.limit_amount, resets_at = EXCLUDED.resets_at`,
		userID, u.Plan, u.Limit, u.ResetsAt); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) Transfer(ctx context.Context, fromUserID, toUserID string) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var used int
	err = tx.QueryRowContext(ctx, `DELETE FROM usage WHERE user_id = $1 AND resets_at > now() RETURNING used`, fromUserID).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return tx.Commit()
	}
	if err != nil {
		return err
	}
	to, err := s.lockAndEnsure(ctx, tx, toUserID)
	if err != nil {
		return err
	}
	total := to.Used + used
	if total > to.Limit {
		total = to.Limit
	}
	if _, err = tx.ExecContext(ctx, `UPDATE usage SET used = $1 WHERE user_id = $2`, total, toUserID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string) (Usage, error) {
	var u Usage
	row := tx.QueryRowContext(ctx, `
SELECT plan, limit_amount, used, resets_at FROM usage WHERE user_id = $1 FOR UPDATE`, userID)
	err := row.Scan(&u.Plan, &u.Limit, &u.Used, &u.ResetsAt)
	if errors.Is(err, sql.ErrNoRows) {
		u = s.policy.fresh()
		if _, err = tx.ExecContext(ctx, `
INSERT INTO usage (user_id, plan, limit_amount, used, resets_at) VALUES ($1, $2, $3, $4, $5)`,
			userID, u.Plan, u.Limit, u.Used, u.ResetsAt); err != nil {
			return Usage{}, err
		}
		return u, nil
	}
	if err != nil {
		return Usage{}, err
	}

	if rolled, changed := s.policy.roll(u); changed {
		u = rolled
		if _, err = tx.ExecContext(ctx, `UPDATE usage SET used = $1, limit_amount = $2, resets_at = $3 WHERE user_id = $4`, u.Used, u.Limit, u.ResetsAt, userID); err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}
