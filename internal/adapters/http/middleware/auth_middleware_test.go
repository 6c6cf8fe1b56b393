package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"emergency-fund/internal/config"
	"emergency-fund/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func protectedApp(guards ...fiber.Handler) *fiber.App {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	app := fiber.New()

	handlers := append([]fiber.Handler{AuthMiddleware(cfg)}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		id, _ := c.Locals("userID").(uint)
		return c.JSON(fiber.Map{"user_id": id, "role": c.Locals("role")})
	})
	app.Get("/private", handlers...)
	return app
}

func token(t *testing.T, role, secret string, minutes int) string {
	t.Helper()
	tok, err := jwt.GenerateAccessToken(7, "officer", role, secret, minutes)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, req *http.Request)
		status int
	}{
		{name: "no token", setup: func(*testing.T, *http.Request) {}, status: http.StatusUnauthorized},
		{
			name: "bearer header",
			setup: func(t *testing.T, req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, "OFFICER", testSecret, 15))
			},
			status: http.StatusOK,
		},
		{
			name: "cookie",
			setup: func(t *testing.T, req *http.Request) {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: token(t, "OFFICER", testSecret, 15)})
			},
			status: http.StatusOK,
		},
		{
			name: "wrong secret",
			setup: func(t *testing.T, req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, "OFFICER", "other", 15))
			},
			status: http.StatusUnauthorized,
		},
		{
			name: "expired",
			setup: func(t *testing.T, req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token(t, "OFFICER", testSecret, -5))
			},
			status: http.StatusUnauthorized,
		},
		{
			name: "not bearer",
			setup: func(t *testing.T, req *http.Request) {
				req.Header.Set("Authorization", "Basic abc")
			},
			status: http.StatusUnauthorized,
		},
	}

	app := protectedApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			tt.setup(t, req)

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRoleGuards(t *testing.T) {
	tests := []struct {
		name   string
		guard  fiber.Handler
		role   string
		status int
	}{
		{name: "admin only allows admin", guard: AdminOnly(), role: "ADMIN", status: http.StatusOK},
		{name: "admin only refuses officer", guard: AdminOnly(), role: "OFFICER", status: http.StatusForbidden},
		{name: "officer or admin allows officer", guard: OfficerOrAdmin(), role: "OFFICER", status: http.StatusOK},
		{name: "officer or admin refuses user", guard: OfficerOrAdmin(), role: "USER", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := protectedApp(tt.guard)
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			req.Header.Set("Authorization", "Bearer "+token(t, tt.role, testSecret, 15))

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRoleMiddleware_WithoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", AdminOnly(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNoCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/", NoCacheHeaders(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "no-store, no-cache, must-revalidate", resp.Header.Get("Cache-Control"))
}

func TestCacheControl_OnlySuccessfulGets(t *testing.T) {
	app := fiber.New()
	app.Use(PlanCatalogCache())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNotFound) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "public, max-age=300", resp.Header.Get("Cache-Control"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Cache-Control"))
}
