package exports

import "context"

type Repo interface {
	Create(ctx context.Context, exp Export) error
	// Get returns an export owned by userID.
	Get(ctx context.Context, userID, exportID string) (Export, error)
	// GetByID is the unscoped lookup used by the worker.
	GetByID(ctx context.Context, exportID string) (Export, error)
	Update(ctx context.Context, exp Export) error
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}
