package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newRoleApp(role string, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalUserRole, role)
		return c.Next()
	})
	app.Use(guard)
	app.Get("/activities", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRoleAllowsStaff(t *testing.T) {
	for _, role := range []string{"admin", "Instructor", " admin "} {
		app := newRoleApp(role, RequireRole(StaffRoles...))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/activities", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, role)
	}
}

func TestRequireRoleRejectsStudents(t *testing.T) {
	app := newRoleApp("student", RequireRole(StaffRoles...))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/activities", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestNormalizeRoleValue(t *testing.T) {
	require.Equal(t, "", normalizeRoleValue(nil))
	require.Equal(t, "admin", normalizeRoleValue(" ADMIN "))
	require.True(t, isStaffRole("instructor"))
	require.False(t, isStaffRole("student"))
}
