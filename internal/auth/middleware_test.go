package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-docs/internal/domain"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

func newTestApp(issuer *Issuer, gate *Gate) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
		},
	})
	mw := NewAuthMiddleware(issuer, nil)
	managers := Allow(domain.RoleDirection, domain.RolePlatformCoordinator)

	app.Get("/me", mw.Handle, RequireAuthenticated(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"id": p.UserID(), "role": p.Role().String()})
	})
	app.Get("/platforms/:id", mw.Handle, Require(gate, managers.On(ScopePlatform), "id"), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	app.Get("/direction", mw.Handle, RequireRoles(gate, domain.RoleDirection), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, path, header string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestAuthMiddlewareHeaders(t *testing.T) {
	issuer := NewIssuer("secret", "docs", "clients", time.Hour)
	app := newTestApp(issuer, NewGate(newResolver()))
	token, _, err := issuer.Issue(Identity{UserID: 5, Role: domain.RoleDirection})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	foreign, _, err := NewIssuer("other", "docs", "clients", time.Hour).Issue(Identity{UserID: 5, Role: domain.RoleDirection})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"foreign key", "Bearer " + foreign, http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
		{"case insensitive scheme", "bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := doRequest(t, app, "/me", tt.header); got != tt.want {
				t.Fatalf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScopedRoute(t *testing.T) {
	issuer := NewIssuer("secret", "docs", "clients", time.Hour)
	app := newTestApp(issuer, NewGate(newResolver()))

	coordToken, _, _ := issuer.Issue(Identity{UserID: 2, Role: domain.RolePlatformCoordinator, Platforms: []int64{3}})
	leaderToken, _, _ := issuer.Issue(Identity{UserID: 3, Role: domain.RoleProjectLeader, Projects: []int64{7}})

	if got := doRequest(t, app, "/platforms/3", "Bearer "+coordToken); got != http.StatusOK {
		t.Fatalf("assigned platform: got %d", got)
	}
	if got := doRequest(t, app, "/platforms/4", "Bearer "+coordToken); got != http.StatusForbidden {
		t.Fatalf("foreign platform: got %d", got)
	}
	if got := doRequest(t, app, "/platforms/abc", "Bearer "+coordToken); got != http.StatusBadRequest {
		t.Fatalf("malformed id: got %d", got)
	}
	if got := doRequest(t, app, "/platforms/abc", "Bearer "+leaderToken); got != http.StatusForbidden {
		t.Fatalf("role check must run before id parsing: got %d", got)
	}
	if got := doRequest(t, app, "/direction", "Bearer "+coordToken); got != http.StatusForbidden {
		t.Fatalf("direction only: got %d", got)
	}
}

func TestTokenSnapshotOutlivesUnassignment(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", "docs", "clients", 24*time.Hour, WithClock(fixedClock(t0)))
	token, _, err := issuer.Issue(Identity{UserID: 2, Role: domain.RolePlatformCoordinator, Platforms: []int64{3}})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// The assignment row for platform 3 is gone by t2; the token still carries it.
	t2 := t0.Add(6 * time.Hour)
	later := NewIssuer("secret", "docs", "clients", 24*time.Hour, WithClock(fixedClock(t2)))
	app := newTestApp(later, NewGate(newResolver()))
	if got := doRequest(t, app, "/platforms/3", "Bearer "+token); got != http.StatusOK {
		t.Fatalf("expected stale token to pass scope check, got %d", got)
	}

	expired := NewIssuer("secret", "docs", "clients", 24*time.Hour, WithClock(fixedClock(t0.Add(25*time.Hour))))
	app = newTestApp(expired, NewGate(newResolver()))
	if got := doRequest(t, app, "/platforms/3", "Bearer "+token); got != http.StatusUnauthorized {
		t.Fatalf("expected token past its lifetime to be rejected, got %d", got)
	}
}
