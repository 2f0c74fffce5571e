package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/photo-moderation/app/services"
	"github.com/amirphl/photo-moderation/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-32-chars"

func newTestAuth(t *testing.T, ttl time.Duration) (*AuthMiddleware, services.TokenService) {
	t.Helper()
	tokens, err := services.NewTokenService(ttl, "test-issuer", "test-audience", false, "", "", testSecret)
	require.NoError(t, err)
	return NewAuthMiddleware(tokens), tokens
}

func newProtectedApp(m *AuthMiddleware, roles ...string) *fiber.App {
	app := fiber.New()
	chain := []any{m.Authenticate()}
	if len(roles) > 0 {
		chain = append(chain, m.RequireRoles(roles...))
	}
	chain = append(chain, func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":  c.Locals(utils.LocalsUserID),
			"username": c.Locals(utils.LocalsUsername),
		})
	})
	app.Get("/protected", chain[0], chain[1:]...)
	return app
}

type authResponse struct {
	Message string `json:"message"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
	Username string `json:"username"`
}

func call(t *testing.T, app *fiber.App, authorization string) (int, authResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body authResponse
	if resp.StatusCode != http.StatusOK || resp.ContentLength != 0 {
		_ = json.NewDecoder(resp.Body).Decode(&body)
	}
	return resp.StatusCode, body
}

func TestAuthenticate(t *testing.T) {
	m, tokens := newTestAuth(t, time.Minute)
	app := newProtectedApp(m)

	t.Run("ValidToken", func(t *testing.T) {
		token, err := tokens.GenerateAccessToken(4, "alice", []string{utils.RoleMember})
		require.NoError(t, err)

		status, body := call(t, app, "Bearer "+token)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "alice", body.Username)
	})

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"MissingHeader", "", "MISSING_AUTHORIZATION_HEADER"},
		{"WrongScheme", "Basic abc", "INVALID_AUTHORIZATION_FORMAT"},
		{"Garbage", "Bearer not-a-jwt", "TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, app, tt.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}

	t.Run("ExpiredToken", func(t *testing.T) {
		expired, tokens := newTestAuth(t, -time.Minute)
		token, err := tokens.GenerateAccessToken(4, "alice", nil)
		require.NoError(t, err)

		status, body := call(t, newProtectedApp(expired), "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_EXPIRED", body.Error.Code)
	})
}

func TestRequireRoles(t *testing.T) {
	m, tokens := newTestAuth(t, time.Minute)
	app := newProtectedApp(m, utils.RoleAdmin, utils.RoleModerator)

	t.Run("ModeratorAllowed", func(t *testing.T) {
		token, err := tokens.GenerateAccessToken(2, "mod", []string{utils.RoleMember, utils.RoleModerator})
		require.NoError(t, err)

		status, _ := call(t, app, "Bearer "+token)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("MemberForbidden", func(t *testing.T) {
		token, err := tokens.GenerateAccessToken(3, "member", []string{utils.RoleMember})
		require.NoError(t, err)

		status, body := call(t, app, "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "INSUFFICIENT_ROLE", body.Error.Code)
	})

	t.Run("WithoutAuthenticate", func(t *testing.T) {
		bare := fiber.New()
		bare.Get("/protected", m.RequireRoles(utils.RoleAdmin), func(c fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		status, body := call(t, bare, "")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "AUTHENTICATION_REQUIRED", body.Error.Code)
	})
}
