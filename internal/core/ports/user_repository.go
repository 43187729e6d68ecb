package ports

import (
	"context"

	"github.com/homekeeper/household-api/internal/core/domain"
)

// UserRepository defines the contract the auth core requires from the user
// directory: lookups by name/email, existence checks, persistence.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindAll(ctx context.Context) ([]*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// RoleRepository looks up canonical role records seeded at startup.
type RoleRepository interface {
	FindByName(ctx context.Context, name string) (string, error)
	EnsureDefaults(ctx context.Context) error
}

// BalanceRepository reads per-user ledger entries. The identity layer never
// mutates balances.
type BalanceRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Balance, error)
}
