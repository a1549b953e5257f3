package exports

import (
	"context"
	"sync"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Export
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Export)}
}

func (r *MemoryRepo) Create(ctx context.Context, exp Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[exp.ID] = exp
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, exportID string) (Export, error) {
	exp, err := r.GetByID(ctx, exportID)
	if err != nil {
		return Export{}, err
	}
	if exp.UserID != userID {
		return Export{}, ErrNotFound
	}
	return exp, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, exportID string) (Export, error) {
	if err := ctx.Err(); err != nil {
		return Export{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.data[exportID]
	if !ok {
		return Export{}, ErrNotFound
	}
	return exp, nil
}

func (r *MemoryRepo) Update(ctx context.Context, exp Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[exp.ID]
	if !ok {
		return ErrNotFound
	}
	exp.CreatedAt = existing.CreatedAt
	r.data[exp.ID] = exp
	return nil
}

func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for id, exp := range r.data {
		if exp.UserID == guestUserID {
			exp.UserID = authedUserID
			r.data[id] = exp
			count++
		}
	}
	return count, nil
}

var _ Repo = (*MemoryRepo)(nil)
