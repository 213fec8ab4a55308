package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/middleware"
	"github.com/centsible/centsible-backend/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Create provisions a user together with their unallocated funds category.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
	}

	user, err := h.users.Create(c.Request().Context(), req.ID, req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdatePreferences replaces the authenticated user's budgeting preferences.
func (h *UserHandler) UpdatePreferences(c echo.Context) error {
	var prefs domain.UserPreferences
	if err := c.Bind(&prefs); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
	}

	user, err := h.users.UpdatePreferences(c.Request().Context(), middleware.UserID(c), prefs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
