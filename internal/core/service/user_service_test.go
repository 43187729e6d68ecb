package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/homekeeper/household-api/internal/core/domain"
	"github.com/homekeeper/household-api/internal/core/ports"
)

type stubRoleRepo struct {
	names map[string]bool
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{names: map[string]bool{
		domain.RoleUser:  true,
		domain.RoleAdmin: true,
	}}
}

func (r *stubRoleRepo) FindByName(_ context.Context, name string) (string, error) {
	if !r.names[name] {
		return "", domain.ErrRoleNotFound
	}
	return name, nil
}

func (r *stubRoleRepo) EnsureDefaults(_ context.Context) error { return nil }

type stubBalanceRepo struct {
	byUser map[string][]domain.Balance
}

func newStubBalanceRepo() *stubBalanceRepo {
	return &stubBalanceRepo{byUser: make(map[string][]domain.Balance)}
}

func (r *stubBalanceRepo) ListByUser(_ context.Context, userID string) ([]domain.Balance, error) {
	return r.byUser[userID], nil
}

func newUserService(users *stubUserRepo, tokens *stubTokenRepo, roles *stubRoleRepo) *UserService {
	return NewUserService(users, roles, tokens, newStubBalanceRepo(), "192.168.0.10", zerolog.Nop())
}

func register(svc *UserService, username, email string, roles []string, remoteAddr string) error {
	return svc.Register(context.Background(), ports.RegisterInput{
		Username:   username,
		Email:      email,
		Password:   "pass123",
		Roles:      roles,
		RemoteAddr: remoteAddr,
	})
}

func TestUserService_Register_DefaultsToUserRole(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users, newStubTokenRepo(), newStubRoleRepo())

	if err := register(svc, "alice", "alice@example.com", nil, "127.0.0.1:54321"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	created := users.users["alice"]
	if created == nil {
		t.Fatalf("user not persisted")
	}
	if len(created.Roles) != 1 || created.Roles[0] != domain.RoleUser {
		t.Fatalf("expected exactly {ROLE_USER}, got %v", created.Roles)
	}
	if created.PasswordHash == "pass123" {
		t.Fatalf("password must be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if created.CreationDate.IsZero() {
		t.Fatalf("creation date not stamped")
	}
}

func TestUserService_Register_RoleResolution(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{"admin label", []string{"admin"}, []string{domain.RoleAdmin}},
		{"unrecognized label", []string{"superuser"}, []string{domain.RoleUser}},
		{"mixed labels", []string{"admin", "user"}, []string{domain.RoleAdmin, domain.RoleUser}},
		{"duplicate labels", []string{"user", "mod"}, []string{domain.RoleUser}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newStubUserRepo()
			svc := newUserService(users, newStubTokenRepo(), newStubRoleRepo())

			if err := register(svc, "bob", "bob@example.com", tt.labels, "127.0.0.1:1"); err != nil {
				t.Fatalf("register failed: %v", err)
			}

			got := users.users["bob"].Roles
			if len(got) != len(tt.want) {
				t.Fatalf("expected roles %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("expected roles %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestUserService_Register_UsernameTaken(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users, newStubTokenRepo(), newStubRoleRepo())

	if err := register(svc, "alice", "alice@example.com", nil, "127.0.0.1:1"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	err := register(svc, "alice", "other@example.com", nil, "127.0.0.1:1")
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if len(users.users) != 1 {
		t.Fatalf("directory must not be mutated on conflict")
	}
}

func TestUserService_Register_EmailTaken(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users, newStubTokenRepo(), newStubRoleRepo())

	if err := register(svc, "alice", "shared@example.com", nil, "127.0.0.1:1"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	err := register(svc, "bob", "shared@example.com", nil, "127.0.0.1:1")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(users.users) != 1 {
		t.Fatalf("directory must not be mutated on conflict")
	}
}

func TestUserService_Register_OriginGate(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		allowed    bool
	}{
		{"loopback with port", "127.0.0.1:51000", true},
		{"loopback v6", "[::1]:51000", true},
		{"localhost", "localhost:51000", true},
		{"configured address", "192.168.0.10:40000", true},
		{"foreign address", "203.0.113.9:40000", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newStubUserRepo()
			svc := newUserService(users, newStubTokenRepo(), newStubRoleRepo())

			err := register(svc, "alice", "alice@example.com", nil, tt.remoteAddr)
			if tt.allowed && err != nil {
				t.Fatalf("expected origin %q to be allowed, got %v", tt.remoteAddr, err)
			}
			if !tt.allowed && !errors.Is(err, domain.ErrForbiddenOrigin) {
				t.Fatalf("expected ErrForbiddenOrigin for %q, got %v", tt.remoteAddr, err)
			}
		})
	}
}

func TestUserService_Register_MissingRoleRecord(t *testing.T) {
	users := newStubUserRepo()
	roles := newStubRoleRepo()
	delete(roles.names, domain.RoleUser)
	svc := newUserService(users, newStubTokenRepo(), roles)

	err := register(svc, "alice", "alice@example.com", nil, "127.0.0.1:1")
	if !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestUserService_Update_SelfEdit(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users, newStubTokenRepo(), newStubRoleRepo())
	seedUser(t, users, "alice", "pass", []string{domain.RoleUser})

	updated, err := svc.Update(context.Background(), ports.UpdateInput{
		TargetID: "id-alice",
		Email:    "new@example.com",
		Caller:   domain.Principal{UserID: "id-alice", Username: "alice", Roles: []string{domain.RoleUser}},
	})
	if err != nil {
		t.Fatalf("self edit failed: %v", err)
	}
	if updated.Email != "new@example.com" {
		t.Fatalf("email not updated: %+v", updated)
	}
}

func TestUserService_Update_OtherWithoutAdmin(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users, newStubTokenRepo(), newStubRoleRepo())
	seedUser(t, users, "alice", "pass", []string{domain.RoleUser})
	seedUser(t, users, "bob", "pass", []string{domain.RoleUser})

	_, err := svc.Update(context.Background(), ports.UpdateInput{
		TargetID: "id-alice",
		Email:    "hijack@example.com",
		Caller:   domain.Principal{UserID: "id-bob", Username: "bob", Roles: []string{domain.RoleUser}},
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserService_Update_OtherAsAdmin(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users, newStubTokenRepo(), newStubRoleRepo())
	seedUser(t, users, "alice", "pass", []string{domain.RoleUser})
	seedUser(t, users, "root", "pass", []string{domain.RoleUser, domain.RoleAdmin})

	// The admin capability is the named ADMIN role, not a role count.
	updated, err := svc.Update(context.Background(), ports.UpdateInput{
		TargetID: "id-alice",
		Username: "alice2",
		Caller:   domain.Principal{UserID: "id-root", Username: "root", Roles: []string{domain.RoleUser, domain.RoleAdmin}},
	})
	if err != nil {
		t.Fatalf("admin edit failed: %v", err)
	}
	if updated.Username != "alice2" {
		t.Fatalf("username not updated: %+v", updated)
	}
}

func TestUserService_Update_ConflictingUsername(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users, newStubTokenRepo(), newStubRoleRepo())
	seedUser(t, users, "alice", "pass", []string{domain.RoleUser})
	seedUser(t, users, "bob", "pass", []string{domain.RoleUser})

	_, err := svc.Update(context.Background(), ports.UpdateInput{
		TargetID: "id-alice",
		Username: "bob",
		Caller:   domain.Principal{UserID: "id-alice", Username: "alice", Roles: []string{domain.RoleUser}},
	})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserService_Delete_CascadesTokens(t *testing.T) {
	users := newStubUserRepo()
	tokens := newStubTokenRepo()
	svc := newUserService(users, tokens, newStubRoleRepo())
	seedUser(t, users, "alice", "pass", []string{domain.RoleUser})

	now := time.Now().UTC()
	tokens.tokens["t1"] = &domain.Token{Value: "t1", UserID: "id-alice", Active: true, ExpiryDate: now.Add(time.Hour)}
	tokens.tokens["t2"] = &domain.Token{Value: "t2", UserID: "id-bob", Active: true, ExpiryDate: now.Add(time.Hour)}

	if err := svc.Delete(context.Background(), "id-alice"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := tokens.FindByValue(context.Background(), "t1"); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("expected alice's token to be purged, got %v", err)
	}
	if _, err := tokens.FindByValue(context.Background(), "t2"); err != nil {
		t.Fatalf("other users' tokens must survive: %v", err)
	}
	if _, ok := users.users["alice"]; ok {
		t.Fatalf("user not removed from directory")
	}
}

func TestUserService_GetInfo_WithBalances(t *testing.T) {
	users := newStubUserRepo()
	balances := newStubBalanceRepo()
	svc := NewUserService(users, newStubRoleRepo(), newStubTokenRepo(), balances, "192.168.0.10", zerolog.Nop())
	seedUser(t, users, "alice", "pass", []string{domain.RoleUser})
	balances.byUser["id-alice"] = []domain.Balance{{ID: "b1", UserID: "id-alice", BalanceSum: 150.5, Currency: "EUR"}}

	summary, err := svc.GetInfo(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get info failed: %v", err)
	}
	if summary.User.Username != "alice" {
		t.Fatalf("unexpected user: %+v", summary.User)
	}
	if len(summary.Balances) != 1 || summary.Balances[0].BalanceSum != 150.5 {
		t.Fatalf("unexpected balances: %+v", summary.Balances)
	}
}

var _ ports.RoleRepository = (*stubRoleRepo)(nil)
var _ ports.BalanceRepository = (*stubBalanceRepo)(nil)
