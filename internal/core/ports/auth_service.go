package ports

import (
	"context"

	"github.com/homekeeper/household-api/internal/core/domain"
)

// AuthService implements the session façade: login, logout and the expired
// token sweep.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, domain.Principal, error)
	Logout(ctx context.Context, tokenValue string) error
	SweepExpiredTokens(ctx context.Context) (int64, error)
}
