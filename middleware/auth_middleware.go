// Package middleware holds echo middleware shared across route groups.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"inkwell/auth"
	applog "inkwell/logger"
)

// UserIDContextKey is where Auth stores the authenticated user's
// identifier on the echo context.
const UserIDContextKey = "auth.user_id"

// Auth requires a valid bearer session token. The user identifier is
// exposed both on the echo context and on the request context for
// logging.
func Auth(tokens *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}

			userID, err := tokens.ParseSession(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			}

			c.Set(UserIDContextKey, userID)

			ctx := context.WithValue(c.Request().Context(), applog.UserIDKey, strconv.FormatInt(userID, 10))
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// UserID returns the identifier stored by Auth. Zero means the route
// was not behind the middleware.
func UserID(c echo.Context) int64 {
	id, _ := c.Get(UserIDContextKey).(int64)
	return id
}
