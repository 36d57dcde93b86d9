package middleware

import (
	"strings"

	"casthub/internal/delivery/http/response"
	"casthub/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// ContextKeySessionClaims is where Authenticate stores the decoded session
// claims for downstream handlers.
const ContextKeySessionClaims = "sessionClaims"

// AuthMiddleware provides middleware for session token authentication.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate validates the bearer session token and stores its claims on
// the request context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "UNAUTHORIZED", "Authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return response.Unauthorized(c, "UNAUTHORIZED", "Invalid token format, must be Bearer token")
		}

		claims, err := m.tokenSvc.Validate(tokenString)
		if err != nil {
			return response.Unauthorized(c, "UNAUTHORIZED", "Invalid or expired token")
		}

		// Set claims on the context for handlers to use
		c.Set(ContextKeySessionClaims, claims)

		return next(c)
	}
}

// SessionClaims extracts the decoded claims stored by Authenticate.
func SessionClaims(c echo.Context) (*service.SessionClaims, bool) {
	claims, ok := c.Get(ContextKeySessionClaims).(*service.SessionClaims)

	return claims, ok
}
