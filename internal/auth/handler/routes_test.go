package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tekriders/auth-service/internal/auth/handler"
	"github.com/tekriders/auth-service/internal/auth/service"
	"github.com/tekriders/auth-service/pkg/constant"
)

// TestRegisterRoutes verifies that all routes are mounted.
func TestRegisterRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/register"},
		{http.MethodPost, "/api/v1/login"},
		{http.MethodPost, "/api/v1/forgot-password"},
		{http.MethodPost, "/api/v1/reset-password"},
		{http.MethodGet, "/api/v1/me"},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s_%s_exists", tc.method, tc.path), func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			resp, err := f.app.Test(req, -1)
			require.NoError(t, err)

			// We only care that the route exists; the handlers return other
			// codes (400, 401) for the empty requests used here.
			assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}

func TestRequireRoleMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	authHandler := handler.NewAuthHandler(nil, f.tokenSvc)
	app := fiber.New()
	app.Get("/admin", authHandler.RequireAuth(), authHandler.RequireRole(constant.RoleAdmin),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	t.Run("fails without auth header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		resp, _ := app.Test(req, -1)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("fails with malformed token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(fiber.HeaderAuthorization, "BearerInvalidToken") // no space
		resp, _ := app.Test(req, -1)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("fails for non-admin role", func(t *testing.T) {
		claims := &service.SessionClaims{UserID: "cred-id", Role: constant.RoleStudent}
		f.tokenSvc.EXPECT().Verify("student-token").Return(claims, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer student-token")
		resp, _ := app.Test(req, -1)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("succeeds for admin role", func(t *testing.T) {
		claims := &service.SessionClaims{
			UserID: "admin-id",
			Role:   constant.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		f.tokenSvc.EXPECT().Verify("admin-token").Return(claims, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer admin-token")
		resp, _ := app.Test(req, -1)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
