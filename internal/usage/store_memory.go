package usage

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu     sync.Mutex
	policy Policy
	data   map[string]Usage
}

func newMemoryStore(policy Policy) *memoryStore {
	return &memoryStore{
		policy: policy,
		data:   make(map[string]Usage),
	}
}

// current must be called with mu held.
func (s *memoryStore) current(userID string) Usage {
	u, ok := s.data[userID]
	if !ok {
		u = s.policy.fresh()
	}
	u, _ = s.policy.roll(u)
	s.data[userID] = u
	return u
}

func (s *memoryStore) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(userID), nil
}

func (s *memoryStore) Consume(ctx context.Context, userID string, n int) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.current(userID)
	if n <= 0 {
		return u, nil
	}
	if u.Used+n > u.Limit {
		return u, ErrLimitReached
	}
	u.Used += n
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Reset(ctx context.Context, userID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.policy.fresh()
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Transfer(ctx context.Context, fromUserID, toUserID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	from, ok := s.data[fromUserID]
	if !ok {
		return nil
	}
	from, _ = s.policy.roll(from)
	to := s.current(toUserID)
	to.Used += from.Used
	if to.Used > to.Limit {
		to.Used = to.Limit
	}
	s.data[toUserID] = to
	delete(s.data, fromUserID)
	return nil
}
