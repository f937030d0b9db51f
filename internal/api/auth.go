package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/example/studyplan/internal/auth"
)

const userIDKey = "user_id"

// jwtAuth accepts HS256 bearer tokens and stores the subject claim as the
// learner's user ID.
func jwtAuth(verifier *auth.Verifier, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(authHeader, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed Authorization header")
			}

			sub, err := verifier.Subject(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				logger.Debug("JWT validation failed", zap.Error(err))
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(userIDKey, sub)
			return next(c)
		}
	}
}

// userID returns the authenticated learner, or "" outside jwtAuth.
func userID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
