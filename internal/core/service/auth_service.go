package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/homekeeper/household-api/internal/core/domain"
	"github.com/homekeeper/household-api/internal/core/ports"
)

// AuthService implements login, logout and the expired-token sweep.
type AuthService struct {
	users     ports.UserRepository
	tokens    ports.TokenRepository
	revoked   ports.RevocationCache
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens ports.TokenRepository, revoked ports.RevocationCache, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		revoked:   revoked,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Login authenticates a username/password pair and mints a session token.
// An unknown username and a wrong password both come back as
// ErrInvalidCredentials so the response cannot be used to enumerate accounts.
// The token row is written before the token is returned; a store failure
// fails the whole login, since an unrecorded token could never be revoked.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, domain.Principal, error) {
	if username == "" || password == "" {
		return "", domain.Principal{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.Principal{}, domain.ErrInvalidCredentials
		}
		return "", domain.Principal{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.Principal{}, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	value, err := s.generateToken(user, now)
	if err != nil {
		return "", domain.Principal{}, err
	}

	record := &domain.Token{
		Value:        value,
		UserID:       user.ID,
		Username:     user.Username,
		Active:       true,
		CreationDate: now,
		ExpiryDate:   now.Add(s.tokenTTL),
	}
	if err := s.tokens.Insert(ctx, record); err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("failed to record issued token")
		return "", domain.Principal{}, err
	}

	s.logger.Info().Str("username", username).Time("expiry", record.ExpiryDate).Msg("session token issued")

	principal := domain.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.Roles,
	}
	return value, principal, nil
}

// Logout marks the presented token inactive. A token already deleted by a
// concurrent sweep counts as logged out, not as a failure.
func (s *AuthService) Logout(ctx context.Context, tokenValue string) error {
	if err := s.tokens.Deactivate(ctx, tokenValue); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			s.logger.Debug().Msg("logout for token already gone")
			return nil
		}
		return err
	}

	if s.revoked != nil {
		// Best effort: the store row is already inactive, the cache just
		// saves the guard a read. TTL is an upper bound on remaining life.
		if err := s.revoked.MarkRevoked(ctx, tokenValue, s.tokenTTL); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache token revocation")
		}
	}
	return nil
}

// SweepExpiredTokens deletes every token whose expiry has passed, active or
// not, and returns how many were removed.
func (s *AuthService) SweepExpiredTokens(ctx context.Context) (int64, error) {
	count, err := s.tokens.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("token sweep failed")
		return 0, err
	}
	if count > 0 {
		s.logger.Info().Int64("removed", count).Msg("expired tokens swept")
	}
	return count, nil
}

func (s *AuthService) generateToken(user *domain.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.Username,
		"roles": user.Roles,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
