package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/homekeeper/household-api/internal/core/domain"
)

func runRBAC(t *testing.T, mw echo.MiddlewareFunc, principal any) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != nil {
		c.Set(PrincipalKey, principal)
	}

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestRBAC_AllowsMatchingRole(t *testing.T) {
	principal := domain.Principal{UserID: "1", Username: "alice", Roles: []string{domain.RoleUser}}
	rec, called := runRBAC(t, RBAC(domain.RoleUser, domain.RoleAdmin), principal)
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_ForbidsUserOnAdminRoute(t *testing.T) {
	principal := domain.Principal{UserID: "1", Username: "alice", Roles: []string{domain.RoleUser}}
	rec, called := runRBAC(t, RBAC(domain.RoleAdmin), principal)
	if called {
		t.Fatalf("next handler should not be called")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRBAC_MissingPrincipal(t *testing.T) {
	rec, called := runRBAC(t, RBAC(domain.RoleUser), nil)
	if called {
		t.Fatalf("next handler should not be called")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
