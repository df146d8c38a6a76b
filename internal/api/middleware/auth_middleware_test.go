package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/socialdesk/configs"
	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/service"
	"github.com/maheshrc27/socialdesk/internal/testutil"
	"github.com/maheshrc27/socialdesk/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-secret"

func newApp(t *testing.T) (*fiber.App, *models.User) {
	store := testutil.NewStore(testutil.FixedClock())
	user := &models.User{Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin}
	_, err := store.Users().Create(context.Background(), nil, user)
	require.NoError(t, err)

	m := NewAuthMiddleware(config.Config{SecretKey: secret}, service.NewUserService(store.Users()))

	app := fiber.New()
	app.Get("/me", m.AuthMiddleware(), func(c *fiber.Ctx) error {
		u := c.Locals("user").(*models.User)
		return c.JSON(fiber.Map{"id": c.Locals("user_id"), "email": u.Email})
	})
	return app, user
}

func request(t *testing.T, app *fiber.App, header string) int {
	req := httptest.NewRequest("GET", "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthMiddleware(t *testing.T) {
	app, user := newApp(t)

	valid, err := utils.GenerateToken(secret, user.ID, user.Role, time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateToken(secret, user.ID, user.Role, -time.Hour)
	require.NoError(t, err)
	foreign, err := utils.GenerateToken("other-secret", user.ID, user.Role, time.Hour)
	require.NoError(t, err)
	ghost, err := utils.GenerateToken(secret, 999, models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, fiber.StatusUnauthorized},
		{"empty token", "Bearer ", fiber.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", fiber.StatusUnauthorized},
		{"expired", "Bearer " + expired, fiber.StatusUnauthorized},
		{"wrong signature", "Bearer " + foreign, fiber.StatusUnauthorized},
		{"deleted user", "Bearer " + ghost, fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, request(t, app, tt.header))
		})
	}
}
