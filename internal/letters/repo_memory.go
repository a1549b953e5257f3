package letters

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRow struct {
	letter    Letter
	deletedAt *time.Time
}

// MemoryRepo is an in-memory Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	rows map[string]*memoryRow
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[string]*memoryRow)}
}

func (r *MemoryRepo) Create(ctx context.Context, letter Letter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[letter.ID] = &memoryRow{letter: letter}
	return nil
}

func (r *MemoryRepo) live(userID, letterID string) (*memoryRow, bool) {
	row, ok := r.rows[letterID]
	if !ok || row.deletedAt != nil || row.letter.UserID != userID {
		return nil, false
	}
	return row, true
}

func (r *MemoryRepo) Get(ctx context.Context, userID, letterID string) (Letter, error) {
	if err := ctx.Err(); err != nil {
		return Letter{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.live(userID, letterID)
	if !ok {
		return Letter{}, ErrNotFound
	}
	return row.letter, nil
}

func (r *MemoryRepo) Update(ctx context.Context, letter Letter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.live(letter.UserID, letter.ID)
	if !ok {
		return ErrNotFound
	}
	letter.CreatedAt = row.letter.CreatedAt
	row.letter = letter
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, letterID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.live(userID, letterID)
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	row.deletedAt = &now
	return nil
}

// ListByUser returns letters newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Letter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	var out []Letter
	for _, row := range r.rows {
		if row.deletedAt == nil && row.letter.UserID == userID {
			out = append(out, row.letter)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Letter{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, row := range r.rows {
		if row.deletedAt == nil && row.letter.UserID == guestUserID {
			row.letter.UserID = authedUserID
			count++
		}
	}
	return count, nil
}

var _ Repo = (*MemoryRepo)(nil)
