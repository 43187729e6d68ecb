package ports

import (
	"context"
	"time"

	"github.com/homekeeper/household-api/internal/core/domain"
)

// TokenRepository is the persistent token store. Row mutations are atomic
// per document; a logout racing the sweep on the same token leaves the loser
// observing the row already gone or inactive.
type TokenRepository interface {
	Insert(ctx context.Context, token *domain.Token) error
	FindByValue(ctx context.Context, value string) (*domain.Token, error)
	Deactivate(ctx context.Context, value string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteByUser(ctx context.Context, userID string) error
}

// RevocationCache is a best-effort fast path in front of the token store.
// A cache hit means the token was logged out or swept; a miss proves nothing.
type RevocationCache interface {
	MarkRevoked(ctx context.Context, value string, ttl time.Duration) error
	IsRevoked(ctx context.Context, value string) (bool, error)
}
