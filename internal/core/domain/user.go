package domain

import "time"

// Canonical role labels. The role table is seeded with exactly these two
// records at startup; users reference them, never copies.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User models an account in the household directory.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"userName"`
	Email        string    `json:"userEmail"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreationDate time.Time `json:"creationDate"`
}

// HasRole reports whether the user holds the given role label.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Principal is the authenticated identity resolved for a request. It travels
// through the request context, never through package-level state.
type Principal struct {
	UserID   string   `json:"id"`
	Username string   `json:"userName"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the principal holds the given role label.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Balance is a per-user ledger entry. The identity layer only reads these;
// mutation lives in the ledger service.
type Balance struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	BalanceSum   float64   `json:"balanceSum"`
	Currency     string    `json:"currency"`
	CreationDate time.Time `json:"creationDate"`
}
