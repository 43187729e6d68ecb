package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/homekeeper/household-api/internal/api/metrics"
	"github.com/homekeeper/household-api/internal/core/domain"
	"github.com/homekeeper/household-api/internal/core/ports"
)

// UserHandler handles directory and token maintenance requests.
type UserHandler struct {
	userService ports.UserService
	authService ports.AuthService
}

func NewUserHandler(userService ports.UserService, authService ports.AuthService) *UserHandler {
	return &UserHandler{userService: userService, authService: authService}
}

// --- Request / Response types ---

type signupRequest struct {
	Username string   `json:"userName" validate:"required,min=3"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=5"`
	Roles    []string `json:"role"`
}

type updateUserRequest struct {
	Username string `json:"userName"`
	Email    string `json:"email"`
}

type userResponse struct {
	ID           string           `json:"id,omitempty"`
	Username     string           `json:"userName"`
	Email        string           `json:"userEmail"`
	CreationDate time.Time        `json:"creationDate"`
	Roles        []string         `json:"roles"`
	Balances     []domain.Balance `json:"balances"`
}

func toUserResponse(s ports.UserSummary) userResponse {
	balances := s.Balances
	if balances == nil {
		balances = []domain.Balance{}
	}
	return userResponse{
		ID:           s.User.ID,
		Username:     s.User.Username,
		Email:        s.User.Email,
		CreationDate: s.User.CreationDate,
		Roles:        s.User.Roles,
		Balances:     balances,
	}
}

// AddUser registers a new account. Registration is gated by source address,
// not by a role: it is a bootstrap operation for the household admin.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "User registration details"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Router       /users/addUser [post]
func (h *UserHandler) AddUser(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	err := h.userService.Register(c.Request().Context(), ports.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Roles:      req.Roles,
		RemoteAddr: c.Request().RemoteAddr,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbiddenOrigin):
			metrics.RegistrationsTotal.WithLabelValues("forbidden_origin").Inc()
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Not support IP!"})
		case errors.Is(err, domain.ErrUsernameTaken):
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Username is already taken!"})
		case errors.Is(err, domain.ErrEmailTaken):
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Email is already in use!"})
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "User registered successfully!"})
}

// List returns every account with roles and ledger balances.
//
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      403  {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	summaries, err := h.userService.List(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]userResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toUserResponse(s))
	}
	return c.JSON(http.StatusOK, out)
}

// GetUserInfo returns the caller's own profile.
//
// @Summary      Get own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Router       /users/getUserInfo [get]
func (h *UserHandler) GetUserInfo(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	summary, err := h.userService.GetInfo(c.Request().Context(), principal.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(*summary))
}

// Update edits a profile. Callers edit themselves; editing anyone else
// requires the ADMIN role.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to update"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  messageResponse
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	user, err := h.userService.Update(c.Request().Context(), ports.UpdateInput{
		TargetID: c.Param("id"),
		Username: req.Username,
		Email:    req.Email,
		Caller:   principal,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "You can edit only yourself data."})
		case errors.Is(err, domain.ErrUsernameTaken):
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Username is already taken!"})
		case errors.Is(err, domain.ErrEmailTaken):
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "Email is already in use!"})
		}
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// Delete removes an account and all of its token rows.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  messageResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.userService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Error: User was not deleted!"})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User was deleted successfully!"})
}

// SweepTokens deletes every token whose expiry has passed. Zero removals is
// reported distinctly so the admin can tell "nothing to clean" from "cleaned".
//
// @Summary      Delete expired tokens
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  messageResponse
// @Router       /users/tokens [delete]
func (h *UserHandler) SweepTokens(c echo.Context) error {
	count, err := h.authService.SweepExpiredTokens(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Error: Can't read token data!"})
	}
	if count == 0 {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "All tokens have valid expiry date!"})
	}

	metrics.TokensSweptTotal.Add(float64(count))
	return c.JSON(http.StatusOK, messageResponse{Message: "Tokens with expiry date was deleted successfully!"})
}
