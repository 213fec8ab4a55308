package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/centsible/centsible-backend/internal/middleware"
	"github.com/centsible/centsible-backend/internal/service"
)

type TransactionHandler struct {
	transactions *service.TransactionService
}

func NewTransactionHandler(transactions *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

type createTransactionRequest struct {
	CategoryID *string `json:"categoryId"`
	Name       string  `json:"name"`
	Amount     string  `json:"amount"`
	Date       string  `json:"date"`
}

func (h *TransactionHandler) Create(c echo.Context) error {
	var req createTransactionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("amount must be a decimal string"))
	}

	tx, err := h.transactions.Create(c.Request().Context(), middleware.UserID(c),
		req.CategoryID, req.Name, amount, req.Date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, tx)
}

func (h *TransactionHandler) Get(c echo.Context) error {
	tx, err := h.transactions.Get(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tx)
}

// List returns a page of the user's transactions, newest first. Supports
// categoryId and uncategorized filters plus limit/cursor pagination.
func (h *TransactionHandler) List(c echo.Context) error {
	var filter service.ListFilter
	if v := c.QueryParam("categoryId"); v != "" {
		filter.CategoryID = &v
	}
	if v := c.QueryParam("uncategorized"); v == "true" {
		filter.Uncategorized = true
	}

	pageSize := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, NewValidationError("limit must be a positive integer"))
		}
		pageSize = n
	}

	page, err := h.transactions.List(c.Request().Context(), middleware.UserID(c),
		filter, pageSize, c.QueryParam("cursor"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

type recategorizeRequest struct {
	CategoryID *string `json:"categoryId"`
}

// Recategorize moves a transaction to another category, or to uncategorized
// when categoryId is null.
func (h *TransactionHandler) Recategorize(c echo.Context) error {
	var req recategorizeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
	}

	tx, err := h.transactions.Recategorize(c.Request().Context(), middleware.UserID(c),
		c.Param("id"), req.CategoryID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tx)
}

func (h *TransactionHandler) Delete(c echo.Context) error {
	if err := h.transactions.Delete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
