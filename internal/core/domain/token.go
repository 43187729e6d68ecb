package domain

import (
	"errors"
	"time"
)

// Token is the persistent record of an issued session token. The signed JWT
// is self-contained; this row exists so logout and the expiry sweep can
// invalidate a token before its signed expiry elapses.
type Token struct {
	ID           string
	Value        string
	UserID       string
	Username     string
	Active       bool
	CreationDate time.Time
	ExpiryDate   time.Time
}

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserNotFound = errors.New("user not found")
var ErrUsernameTaken = errors.New("username already taken")
var ErrEmailTaken = errors.New("email already in use")
var ErrRoleNotFound = errors.New("role not found")
var ErrForbiddenOrigin = errors.New("origin not allowed")
var ErrTokenNotFound = errors.New("token not found")
var ErrForbidden = errors.New("access forbidden")
