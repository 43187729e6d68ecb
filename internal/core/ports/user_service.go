package ports

import (
	"context"

	"github.com/homekeeper/household-api/internal/core/domain"
)

// RegisterInput carries a signup request plus the connection's remote
// address, which gates registration.
type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	Roles      []string
	RemoteAddr string
}

// UpdateInput carries a self-or-admin profile edit.
type UpdateInput struct {
	TargetID string
	Username string
	Email    string
	Caller   domain.Principal
}

// UserSummary is a directory entry joined with its ledger balances.
type UserSummary struct {
	User     *domain.User
	Balances []domain.Balance
}

type UserService interface {
	Register(ctx context.Context, input RegisterInput) error
	List(ctx context.Context) ([]UserSummary, error)
	GetInfo(ctx context.Context, username string) (*UserSummary, error)
	Update(ctx context.Context, input UpdateInput) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
