package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/project-docs/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndVerifyCoordinator(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", "docs", "clients", 24*time.Hour, WithClock(fixedClock(now)))

	token, exp, err := issuer.Issue(Identity{
		UserID:    42,
		Name:      "Coord",
		Email:     "coord@example.com",
		Role:      domain.RolePlatformCoordinator,
		Platforms: []int64{3, 8},
		Projects:  []int64{99},
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", exp)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "42" || claims.UserID != "42" {
		t.Fatalf("unexpected subject %q/%q", claims.Subject, claims.UserID)
	}
	if claims.Role != "CoordinadorPlataforma" || claims.RoleValue != 2 {
		t.Fatalf("unexpected role claims %q/%d", claims.Role, claims.RoleValue)
	}
	if claims.AssignedPlatforms != "3,8" {
		t.Fatalf("unexpected platforms claim %q", claims.AssignedPlatforms)
	}
	if claims.AssignedProjects != "" {
		t.Fatalf("coordinator token must not carry projects, got %q", claims.AssignedProjects)
	}
}

func TestIssueOmitsEmptyAssignments(t *testing.T) {
	issuer := NewIssuer("secret", "docs", "clients", time.Hour)
	token, _, err := issuer.Issue(Identity{UserID: 7, Role: domain.RoleProjectLeader})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if strings.Contains(string(payload), "assigned_projects") || strings.Contains(string(payload), "assigned_platforms") {
		t.Fatalf("empty assignment claims should be omitted: %s", payload)
	}
}

func TestVerifyRejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	good := NewIssuer("secret", "docs", "clients", time.Hour, WithClock(fixedClock(now)))
	token, _, err := good.Issue(Identity{UserID: 1, Role: domain.RoleDirection})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name     string
		verifier *Issuer
		token    string
	}{
		{"different key", NewIssuer("other", "docs", "clients", time.Hour, WithClock(fixedClock(now))), token},
		{"wrong issuer", NewIssuer("secret", "someone-else", "clients", time.Hour, WithClock(fixedClock(now))), token},
		{"wrong audience", NewIssuer("secret", "docs", "browsers", time.Hour, WithClock(fixedClock(now))), token},
		{"expired", NewIssuer("secret", "docs", "clients", time.Hour, WithClock(fixedClock(now.Add(time.Hour)))), token},
		{"garbage", good, "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.verifier.Verify(tt.token); err == nil {
				t.Fatalf("expected verification failure")
			}
		})
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "docs",
			Audience:  jwt.ClaimStrings{"clients"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "Direccion",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewIssuer("secret", "docs", "clients", time.Hour).Verify(token); err == nil {
		t.Fatalf("expected HS512 token to be rejected")
	}
}

func TestVerifyRequiresExpiration(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: "docs", Audience: jwt.ClaimStrings{"clients"}},
		Role:             "Direccion",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewIssuer("secret", "docs", "clients", time.Hour).Verify(token); err == nil {
		t.Fatalf("expected token without exp to be rejected")
	}
}
