// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/amirphl/photo-moderation/app/dto"
	"github.com/amirphl/photo-moderation/app/services"
	"github.com/amirphl/photo-moderation/utils"
	"github.com/gofiber/fiber/v3"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService}
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: code},
	})
}

// Authenticate validates the bearer token and stores the acting user in locals
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required", "MISSING_AUTHORIZATION_HEADER")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format. Expected 'Bearer <token>'", "INVALID_AUTHORIZATION_FORMAT")
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return unauthorized(c, "Access token is required", "MISSING_ACCESS_TOKEN")
		}

		claims, err := m.tokenService.ValidateToken(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "Access token has expired", "TOKEN_EXPIRED")
			case errors.Is(err, services.ErrTokenInvalid):
				return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
			default:
				return unauthorized(c, "Token validation failed", "TOKEN_VALIDATION_FAILED")
			}
		}
		if claims.UserID == 0 || claims.Username == "" {
			return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
		}

		c.Locals(utils.LocalsUserID, claims.UserID)
		c.Locals(utils.LocalsUsername, claims.Username)
		c.Locals(utils.LocalsTokenClaims, claims)

		return c.Next()
	}
}

// RequireRoles lets the request through only when the token carries one of roles.
// It must run after Authenticate.
func (m *AuthMiddleware) RequireRoles(roles ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, ok := GetTokenClaimsFromContext(c)
		if !ok {
			return unauthorized(c, "Authentication required", "AUTHENTICATION_REQUIRED")
		}
		if !claims.HasAnyRole(roles...) {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "You do not have permission to access this resource",
				Error:   dto.ErrorDetail{Code: "INSUFFICIENT_ROLE"},
			})
		}
		return c.Next()
	}
}

// GetTokenClaimsFromContext extracts token claims from the request context
func GetTokenClaimsFromContext(c fiber.Ctx) (*services.TokenClaims, bool) {
	claims, ok := c.Locals(utils.LocalsTokenClaims).(*services.TokenClaims)
	return claims, ok && claims != nil
}
