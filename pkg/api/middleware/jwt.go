package middleware

import (
	"net/http"
	"strings"

	"github.com/jobscout/jobscout/pkg/auth"
	"github.com/jobscout/jobscout/pkg/models"
	"github.com/jobscout/jobscout/pkg/users"
	"github.com/labstack/echo/v4"
)

// Context keys set by the JWT middleware
const (
	IdentityKey = "identity"
	UserIDKey   = "user_id"
)

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorized(c, "Authorization header is required")
			}

			token, ok := bearerToken(authHeader)
			if !ok {
				return unauthorized(c, "Authorization header must be 'Bearer {token}'")
			}

			return authenticate(c, next, token, secret)
		}
	}
}

// JWTFromQueryOrHeader accepts the token from the Authorization header or a
// token query parameter. Download links cannot set headers.
func JWTFromQueryOrHeader(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, _ := bearerToken(c.Request().Header.Get("Authorization"))
			if token == "" {
				token = c.QueryParam("token")
			}
			if token == "" {
				return unauthorized(c, "Authorization header or token query parameter is required")
			}

			return authenticate(c, next, token, secret)
		}
	}
}

// IdentityFrom returns the authenticated caller stored by the middleware
func IdentityFrom(c echo.Context) (users.Identity, bool) {
	id, ok := c.Get(IdentityKey).(users.Identity)
	return id, ok && id.ID != ""
}

func authenticate(c echo.Context, next echo.HandlerFunc, token, secret string) error {
	claims, err := auth.ValidateToken(token, secret)
	if err != nil {
		return unauthorized(c, "Invalid or expired token")
	}

	id := claims.Identity()
	c.Set(IdentityKey, id)
	c.Set(UserIDKey, id.ID)

	return next(c)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
