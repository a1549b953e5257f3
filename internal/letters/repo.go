package letters

import "context"

// Repo persists letters. Every lookup is scoped to the owning user; deleted
// letters are invisible to all reads.
type Repo interface {
	Create(ctx context.Context, letter Letter) error
	Get(ctx context.Context, userID, letterID string) (Letter, error)
	Update(ctx context.Context, letter Letter) error
	Delete(ctx context.Context, userID, letterID string) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Letter, error)
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}
