package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"doc-retriever/internal/auth"
)

type contextKey string

// ServiceClaimsKey holds the verified *auth.ServiceClaims on the request context.
const ServiceClaimsKey contextKey = "service_claims"

const ServiceTokenHeader = "X-Service-Token"

type AuthMiddleware struct {
	authClient *auth.Client
}

func NewAuthMiddleware(authClient *auth.Client) *AuthMiddleware {
	return &AuthMiddleware{
		authClient: authClient,
	}
}

// RequireServiceAuth accepts a token from X-Service-Token or a Bearer
// Authorization header and checks it carries permission.
func (m *AuthMiddleware) RequireServiceAuth(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := extractToken(c.Request())
			if tokenString == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "service token required"})
			}

			claims, err := m.authClient.ValidateServiceToken(tokenString)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid service token"})
			}
			if !claims.Has(permission) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "missing permission: " + permission})
			}

			ctx := context.WithValue(c.Request().Context(), ServiceClaimsKey, claims)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func extractToken(r *http.Request) string {
	if token := r.Header.Get(ServiceTokenHeader); token != "" {
		return token
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// ClaimsFromContext returns the claims stored by RequireServiceAuth.
func ClaimsFromContext(ctx context.Context) (*auth.ServiceClaims, bool) {
	claims, ok := ctx.Value(ServiceClaimsKey).(*auth.ServiceClaims)
	return claims, ok
}
