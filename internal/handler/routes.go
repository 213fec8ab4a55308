package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/centsible/centsible-backend/internal/middleware"
)

// Handlers collects the route handlers wired by RegisterRoutes.
type Handlers struct {
	User        *UserHandler
	Category    *CategoryHandler
	Transaction *TransactionHandler
	Assignment  *AssignmentHandler
	Plaid       *PlaidHandler
	WebSocket   *WebSocketHandler
}

// RegisterRoutes mounts the API under /api/v1. Everything except user
// provisioning and the health check requires a caller identity.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	api.POST("/users", h.User.Create)

	authed := api.Group("", middleware.UserIdentity())

	authed.GET("/users/me", h.User.Me)
	authed.PUT("/users/me/preferences", h.User.UpdatePreferences)

	authed.POST("/categories", h.Category.Create)
	authed.GET("/categories", h.Category.List)
	authed.GET("/categories/allocated", h.Category.ListWithAllocated)
	authed.PUT("/categories/:id/goal", h.Category.SetGoal)
	authed.DELETE("/categories/:id", h.Category.Delete)

	authed.POST("/category-groups", h.Category.CreateGroup)
	authed.GET("/category-groups", h.Category.ListGroups)
	authed.DELETE("/category-groups/:id", h.Category.DeleteGroup)

	authed.POST("/transactions", h.Transaction.Create)
	authed.GET("/transactions", h.Transaction.List)
	authed.GET("/transactions/:id", h.Transaction.Get)
	authed.PATCH("/transactions/:id/category", h.Transaction.Recategorize)
	authed.DELETE("/transactions/:id", h.Transaction.Delete)

	authed.POST("/assignments", h.Assignment.Create)
	authed.GET("/assignments", h.Assignment.List)

	authed.POST("/plaid/items", h.Plaid.LinkItem)
	authed.GET("/plaid/items", h.Plaid.ListItems)
	authed.GET("/plaid/items/:id/cursor", h.Plaid.Cursor)
	authed.POST("/plaid/items/:id/sync", h.Plaid.Sync)

	authed.GET("/ws", h.WebSocket.Connect)
}
