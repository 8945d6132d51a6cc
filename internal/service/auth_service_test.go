package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

type authFixture struct {
	db       *memDB
	issuer   *auth.Issuer
	svc      *AuthService
	attempts *memAttempts
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := newMemDB()
	issuer := auth.NewIssuer("test-secret", "project-docs", "clients", time.Hour)
	attempts := &memAttempts{max: 3, failures: map[string]int{}}
	svc, err := NewAuthService(AuthDependencies{
		UserRepo:       fakeUsers{db},
		AssignmentRepo: fakeAssignments{db},
		Issuer:         issuer,
		Attempts:       attempts,
		BcryptCost:     bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return &authFixture{db: db, issuer: issuer, svc: svc, attempts: attempts}
}

func (f *authFixture) addUser(t *testing.T, email, password string, role domain.Role, active bool) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &domain.User{Name: email, Email: email, PasswordHash: hash, Role: role, Active: active}
	if err := (fakeUsers{f.db}).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func statusOf(err error) int {
	if d := apperrors.ToDomainError(err); d != nil {
		return d.HTTPStatus
	}
	return 0
}

func TestLoginFailsIdenticallyForInactiveAndUnknown(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "inactive@example.com", "secret1", domain.RoleDirection, false)

	_, inactiveErr := f.svc.Login(context.Background(), "inactive@example.com", "secret1")
	_, unknownErr := f.svc.Login(context.Background(), "nobody@example.com", "secret1")

	a, b := apperrors.ToDomainError(inactiveErr), apperrors.ToDomainError(unknownErr)
	if a == nil || b == nil {
		t.Fatalf("expected both logins to fail, got %v / %v", inactiveErr, unknownErr)
	}
	if diff := cmp.Diff(*a, *b); diff != "" {
		t.Fatalf("errors differ (-inactive +unknown):\n%s", diff)
	}
	if a.Code != "INVALID_CREDENTIALS" || a.HTTPStatus != http.StatusUnauthorized {
		t.Fatalf("unexpected error %+v", a)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "dir@example.com", "secret1", domain.RoleDirection, true)
	_, err := f.svc.Login(context.Background(), "dir@example.com", "nope")
	if apperrors.ToDomainError(err).Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestLoginThrottlesAfterFailures(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "dir@example.com", "secret1", domain.RoleDirection, true)
	for i := 0; i < 3; i++ {
		_, _ = f.svc.Login(context.Background(), "dir@example.com", "wrong")
	}
	_, err := f.svc.Login(context.Background(), "dir@example.com", "secret1")
	if statusOf(err) != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	f.attempts.failures = map[string]int{}
	if _, err := f.svc.Login(context.Background(), "dir@example.com", "secret1"); err != nil {
		t.Fatalf("login after window: %v", err)
	}
}

func TestLoginCarriesAssignments(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "coord@example.com", "secret1", domain.RolePlatformCoordinator, true)
	f.db.platformLink[[2]int64{u.ID, 3}] = true
	f.db.platformLink[[2]int64{u.ID, 8}] = true

	res, err := f.svc.Login(context.Background(), "coord@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := f.issuer.Verify(res.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	p, err := auth.Extract(claims)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if diff := cmp.Diff([]int64{3, 8}, p.Platforms()); diff != "" {
		t.Fatalf("platform scope mismatch (-want +got):\n%s", diff)
	}
	if res.User.LastAccessAt == nil {
		t.Fatal("last access not recorded")
	}
}

func TestMeRejectsDeactivatedAccount(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "lead@example.com", "secret1", domain.RoleProjectLeader, true)
	p := auth.NewPrincipal(u.ID, domain.RoleProjectLeader, nil, nil)
	if _, err := f.svc.Me(context.Background(), p); err != nil {
		t.Fatalf("Me: %v", err)
	}
	f.db.users[u.ID].Active = false
	if _, err := f.svc.Me(context.Background(), p); statusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive account, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "lead@example.com", "secret1", domain.RoleProjectLeader, true)
	p := auth.NewPrincipal(u.ID, domain.RoleProjectLeader, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		current string
		next    string
		confirm string
	}{
		{"mismatch", "secret1", "newsecret", "other"},
		{"too short", "secret1", "abc", "abc"},
		{"wrong current", "nope", "newsecret", "newsecret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.ChangePassword(ctx, p, tt.current, tt.next, tt.confirm)
			if statusOf(err) != http.StatusBadRequest {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if err := f.svc.ChangePassword(ctx, p, "secret1", "newsecret", "newsecret"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := f.svc.Login(ctx, "lead@example.com", "newsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := f.svc.Login(ctx, "lead@example.com", "secret1"); err == nil {
		t.Fatal("old password still accepted")
	}
}

func TestLoginRequiresInput(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), " ", "")
	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected validation error, got %v", err)
	}
}
