package usercontext

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

// runWithCtx executes fn inside a real request handler so Locals behave as
// they do in production.
func runWithCtx(t *testing.T, fn func(c *fiber.Ctx)) {
	t.Helper()
	app := fiber.New()
	called := false
	app.Get("/", func(c *fiber.Ctx) error {
		called = true
		fn(c)
		return nil
	})
	if _, err := app.Test(httptest.NewRequest("GET", "/", nil)); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if !called {
		t.Fatalf("handler did not run")
	}
}

func TestGetUserContext_AnonymousDefault(t *testing.T) {
	runWithCtx(t, func(c *fiber.Ctx) {
		uc := GetUserContext(c)
		if uc.IsLoggedIn || uc.IsAdmin || uc.UserID != 0 {
			t.Errorf("anonymous context = %+v, want zero values", uc)
		}
		if GetUserID(c) != 0 {
			t.Errorf("GetUserID = %d, want 0 for anonymous caller", GetUserID(c))
		}
		if GetUsername(c) != "" {
			t.Errorf("GetUsername = %q, want empty for anonymous caller", GetUsername(c))
		}
	})
}

func TestAccessors_ReadStoredContext(t *testing.T) {
	runWithCtx(t, func(c *fiber.Ctx) {
		c.Locals("USER_CONTEXT", UserContext{
			UserID:     7,
			Username:   "meg",
			Email:      "meg@example.com",
			IsLoggedIn: true,
		})
		if got := GetUserID(c); got != 7 {
			t.Errorf("GetUserID = %d, want 7", got)
		}
		if got := GetUsername(c); got != "meg" {
			t.Errorf("GetUsername = %q, want meg", got)
		}
		if uc := GetUserContext(c); !uc.IsLoggedIn || uc.Email != "meg@example.com" {
			t.Errorf("stored context not round-tripped: %+v", uc)
		}
	})
}
