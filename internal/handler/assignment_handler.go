package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/centsible/centsible-backend/internal/middleware"
	"github.com/centsible/centsible-backend/internal/service"
)

type AssignmentHandler struct {
	assignments *service.AssignmentService
}

func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

type createAssignmentRequest struct {
	CategoryID string `json:"categoryId"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
}

// Create moves funds between the unallocated pool and a category. A positive
// amount funds the category, a negative amount returns funds to the pool.
func (h *AssignmentHandler) Create(c echo.Context) error {
	var req createAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("amount must be a decimal string"))
	}

	assignment, err := h.assignments.Create(c.Request().Context(), middleware.UserID(c),
		req.CategoryID, amount, req.Date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, assignment)
}

func (h *AssignmentHandler) List(c echo.Context) error {
	assignments, err := h.assignments.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, assignments)
}
