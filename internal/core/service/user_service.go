package service

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/homekeeper/household-api/internal/core/domain"
	"github.com/homekeeper/household-api/internal/core/ports"
)

// UserService implements registration and directory maintenance.
type UserService struct {
	users       ports.UserRepository
	roles       ports.RoleRepository
	tokens      ports.TokenRepository
	balances    ports.BalanceRepository
	allowedAddr string
	logger      zerolog.Logger
}

func NewUserService(users ports.UserRepository, roles ports.RoleRepository, tokens ports.TokenRepository, balances ports.BalanceRepository, allowedAddr string, logger zerolog.Logger) *UserService {
	return &UserService{
		users:       users,
		roles:       roles,
		tokens:      tokens,
		balances:    balances,
		allowedAddr: allowedAddr,
		logger:      logger,
	}
}

// Register creates a new account. Registration is a bootstrap operation, not
// public self-signup: the caller's address must match the configured allow
// address or be loopback. Username and email must be unused.
func (s *UserService) Register(ctx context.Context, input ports.RegisterInput) error {
	if !s.originAllowed(input.RemoteAddr) {
		s.logger.Warn().Str("remote_addr", input.RemoteAddr).Msg("registration rejected by origin gate")
		return domain.ErrForbiddenOrigin
	}

	taken, err := s.users.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrUsernameTaken
	}

	used, err := s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return err
	}
	if used {
		return domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	roles, err := s.resolveRoles(ctx, input.Roles)
	if err != nil {
		return err
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Roles:        roles,
		CreationDate: time.Now().UTC(),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info().Str("username", input.Username).Strs("roles", roles).Msg("user registered")
	return nil
}

// resolveRoles maps signup role labels to canonical role records. An absent
// or empty set defaults to ROLE_USER; the literal "admin" resolves to
// ROLE_ADMIN; every other label resolves to ROLE_USER. A missing canonical
// record is a deployment defect, surfaced as ErrRoleNotFound.
func (s *UserService) resolveRoles(ctx context.Context, labels []string) ([]string, error) {
	if len(labels) == 0 {
		name, err := s.roles.FindByName(ctx, domain.RoleUser)
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	}

	seen := make(map[string]struct{}, 2)
	resolved := make([]string, 0, 2)
	for _, label := range labels {
		canonical := domain.RoleUser
		if label == "admin" {
			canonical = domain.RoleAdmin
		}
		name, err := s.roles.FindByName(ctx, canonical)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		resolved = append(resolved, name)
	}
	return resolved, nil
}

// List returns every directory entry joined with its ledger balances.
func (s *UserService) List(ctx context.Context) ([]ports.UserSummary, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]ports.UserSummary, 0, len(users))
	for _, user := range users {
		balances, err := s.balances.ListByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ports.UserSummary{User: user, Balances: balances})
	}
	return summaries, nil
}

// GetInfo returns the profile of the named user with their balances.
func (s *UserService) GetInfo(ctx context.Context, username string) (*ports.UserSummary, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	balances, err := s.balances.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &ports.UserSummary{User: user, Balances: balances}, nil
}

// Update applies a profile edit. Callers may edit themselves; anyone else
// requires the ADMIN role. New username/email values must remain unique.
func (s *UserService) Update(ctx context.Context, input ports.UpdateInput) (*domain.User, error) {
	if input.Caller.UserID != input.TargetID && !input.Caller.HasRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}

	user, err := s.users.FindByID(ctx, input.TargetID)
	if err != nil {
		return nil, err
	}

	if input.Username != "" && input.Username != user.Username {
		taken, err := s.users.ExistsByUsername(ctx, input.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrUsernameTaken
		}
		user.Username = input.Username
	}

	if input.Email != "" && input.Email != user.Email {
		used, err := s.users.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, domain.ErrEmailTaken
		}
		user.Email = input.Email
	}

	return s.users.Update(ctx, user)
}

// Delete removes a user and purges their token rows so no orphan session can
// outlive the account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.tokens.DeleteByUser(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to purge tokens for deleted user")
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// originAllowed accepts the configured allow address and loopback. The
// remote address may arrive with or without a port.
func (s *UserService) originAllowed(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	if host == "" {
		return false
	}
	if host == s.allowedAddr || host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return true
	}
	return false
}
