package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/middleware"
	"github.com/centsible/centsible-backend/internal/service"
)

type PlaidHandler struct {
	plaid *service.PlaidService
}

func NewPlaidHandler(plaid *service.PlaidService) *PlaidHandler {
	return &PlaidHandler{plaid: plaid}
}

type linkItemRequest struct {
	AccessToken     string                `json:"accessToken"`
	ItemID          string                `json:"itemId"`
	InstitutionID   string                `json:"institutionId"`
	InstitutionName string                `json:"institutionName"`
	Accounts        []domain.PlaidAccount `json:"accounts"`
}

func (h *PlaidHandler) LinkItem(c echo.Context) error {
	var req linkItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
	}
	if req.ItemID == "" || req.AccessToken == "" {
		return c.JSON(http.StatusBadRequest, NewValidationError("itemId and accessToken are required"))
	}

	item, err := h.plaid.LinkItem(c.Request().Context(), middleware.UserID(c),
		req.AccessToken, req.ItemID, req.InstitutionID, req.InstitutionName, req.Accounts)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *PlaidHandler) ListItems(c echo.Context) error {
	items, err := h.plaid.ItemsByUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Cursor returns the item's last committed sync cursor for the feed driver.
func (h *PlaidHandler) Cursor(c echo.Context) error {
	cursor, err := h.plaid.Cursor(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"cursor": cursor})
}

type syncedTransactionRequest struct {
	PlaidTransactionID string `json:"plaidTransactionId"`
	AccountID          string `json:"accountId"`
	Name               string `json:"name"`
	Amount             string `json:"amount"`
	Date               string `json:"date"`
}

type syncRequest struct {
	Added      []syncedTransactionRequest `json:"added"`
	Modified   []syncedTransactionRequest `json:"modified"`
	RemovedIDs []string                   `json:"removedIds"`
	NextCursor string                     `json:"nextCursor"`
}

// Sync applies one decoded aggregation-feed delta to the linked item.
func (h *PlaidHandler) Sync(c echo.Context) error {
	var req syncRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
	}

	delta := service.SyncDelta{RemovedIDs: req.RemovedIDs, NextCursor: req.NextCursor}
	var err error
	if delta.Added, err = decodeSynced(req.Added); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError(err.Error()))
	}
	if delta.Modified, err = decodeSynced(req.Modified); err != nil {
		return c.JSON(http.StatusBadRequest, NewValidationError(err.Error()))
	}

	result, err := h.plaid.ApplySyncDelta(c.Request().Context(), middleware.UserID(c), c.Param("id"), delta)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func decodeSynced(in []syncedTransactionRequest) ([]service.SyncedTransaction, error) {
	out := make([]service.SyncedTransaction, 0, len(in))
	for _, st := range in {
		amount, err := decimal.NewFromString(st.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, service.SyncedTransaction{
			PlaidTransactionID: st.PlaidTransactionID,
			AccountID:          st.AccountID,
			Name:               st.Name,
			Amount:             amount,
			Date:               st.Date,
		})
	}
	return out, nil
}
