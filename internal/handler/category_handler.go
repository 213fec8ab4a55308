package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/centsible/centsible-backend/internal/middleware"
	"github.com/centsible/centsible-backend/internal/service"
)

type CategoryHandler struct {
	categories *service.CategoryService
	groups     *service.CategoryGroupService
}

func NewCategoryHandler(categories *service.CategoryService, groups *service.CategoryGroupService) *CategoryHandler {
	return &CategoryHandler{categories: categories, groups: groups}
}

type createCategoryRequest struct {
	Name    string  `json:"name"`
	GroupID *string `json:"groupId,omitempty"`
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var req createCategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
	}

	category, err := h.categories.Create(c.Request().Context(), middleware.UserID(c), req.Name, req.GroupID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.categories.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

// ListWithAllocated returns categories annotated with the amount assigned to
// each inside the [start, end] date window from the query string.
func (h *CategoryHandler) ListWithAllocated(c echo.Context) error {
	start := c.QueryParam("start")
	end := c.QueryParam("end")
	if start == "" || end == "" {
		return c.JSON(http.StatusBadRequest, NewValidationError("start and end query parameters are required"))
	}

	categories, err := h.categories.ListWithAllocated(c.Request().Context(), middleware.UserID(c), start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

type setGoalRequest struct {
	GoalAmount *string `json:"goalAmount"`
}

// SetGoal sets or clears a category's goal amount. A null goalAmount clears
// the goal.
func (h *CategoryHandler) SetGoal(c echo.Context) error {
	var req setGoalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
	}

	var goal *decimal.Decimal
	if req.GoalAmount != nil {
		parsed, err := decimal.NewFromString(*req.GoalAmount)
		if err != nil {
			return c.JSON(http.StatusBadRequest, NewValidationError("goalAmount must be a decimal string"))
		}
		goal = &parsed
	}

	category, err := h.categories.SetGoal(c.Request().Context(), middleware.UserID(c), c.Param("id"), goal)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	if err := h.categories.Delete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type createGroupRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
}

func (h *CategoryHandler) CreateGroup(c echo.Context) error {
	var req createGroupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
	}

	group, err := h.groups.Create(c.Request().Context(), middleware.UserID(c), req.Name, req.SortOrder)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, group)
}

func (h *CategoryHandler) ListGroups(c echo.Context) error {
	groups, err := h.groups.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, groups)
}

func (h *CategoryHandler) DeleteGroup(c echo.Context) error {
	if err := h.groups.Delete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
