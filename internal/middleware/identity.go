package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key holding the authenticated user id.
const UserIDKey = "userID"

const userIDHeader = "X-User-ID"

// UserIdentity reads the caller identity from the X-User-ID header and stores
// it in the request context. Authentication happens upstream; the gateway
// injects the verified user id before the request reaches this service.
func UserIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(userIDHeader)
			if id == "" {
				// Browser WebSocket clients cannot set custom headers.
				id = c.QueryParam("user_id")
			}
			if id == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"type":   "https://centsible.app/errors/unauthorized",
					"title":  "Unauthorized",
					"status": http.StatusUnauthorized,
					"detail": "missing " + userIDHeader + " header",
				})
			}
			c.Set(UserIDKey, id)
			return next(c)
		}
	}
}

// UserID returns the identity stored by UserIdentity, or "" when the
// middleware did not run.
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}
