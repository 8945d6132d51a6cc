package auth

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spec-kit/project-docs/internal/domain"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		in   string
		want []int64
	}{
		{"", nil},
		{"3", []int64{3}},
		{"3,8, 12", []int64{3, 8, 12}},
		{"3,abc,-1,0,,7", []int64{3, 7}},
		{" , ", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ParseIDList(tt.in)); diff != "" {
			t.Fatalf("ParseIDList(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestExtract(t *testing.T) {
	claims := &Claims{
		Name:              "Leader",
		Email:             "leader@example.com",
		Role:              "LiderProyecto",
		RoleValue:         3,
		AssignedProjects:  "9,7,x",
		AssignedPlatforms: "1",
	}
	claims.Subject = "15"

	p, err := Extract(claims)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p.UserID() != 15 || p.Role() != domain.RoleProjectLeader {
		t.Fatalf("unexpected principal %d/%v", p.UserID(), p.Role())
	}
	if diff := cmp.Diff([]int64{7, 9}, p.Projects()); diff != "" {
		t.Fatalf("projects mismatch (-want +got):\n%s", diff)
	}
	if !p.HasProject(7) || p.HasProject(8) {
		t.Fatalf("project membership wrong")
	}
	if p.Email() != "leader@example.com" {
		t.Fatalf("email not carried: %q", p.Email())
	}
}

func TestExtractRejects(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		role    string
		value   int
		want    error
	}{
		{"missing subject", "", "Direccion", 1, ErrInvalidSubject},
		{"non numeric subject", "abc", "Direccion", 1, ErrInvalidSubject},
		{"unknown role name", "1", "SuperAdmin", 0, ErrUnknownRole},
		{"unknown role value", "1", "", 9, ErrUnknownRole},
		{"no role at all", "1", "", 0, ErrUnknownRole},
		{"name and value disagree", "1", "Direccion", 4, ErrUnknownRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &Claims{Role: tt.role, RoleValue: tt.value}
			claims.Subject = tt.subject
			if _, err := Extract(claims); !errors.Is(err, tt.want) {
				t.Fatalf("Extract() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExtractRoleFromNumericClaim(t *testing.T) {
	claims := &Claims{RoleValue: 4}
	claims.Subject = "2"
	p, err := Extract(claims)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p.Role() != domain.RoleAdministrationUser {
		t.Fatalf("unexpected role %v", p.Role())
	}
}

func TestPrincipalAccessorsReturnCopies(t *testing.T) {
	p := NewPrincipal(1, domain.RolePlatformCoordinator, []int64{5, 2}, nil)
	ids := p.Platforms()
	ids[0] = 100
	if p.HasPlatform(100) || !p.HasPlatform(2) {
		t.Fatalf("principal mutated through accessor")
	}
}
