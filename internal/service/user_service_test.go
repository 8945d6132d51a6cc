package service

import (
	"context"
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
)

func TestCreateUser(t *testing.T) {
	db := newMemDB()
	svc := NewUserService(fakeUsers{db}, nil, bcrypt.MinCost)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateUserInput{Name: "Ana", Email: "ana@example.com", Password: "secret1", Role: domain.RoleDirection})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !u.Active || u.PasswordHash == "secret1" || auth.ComparePassword(u.PasswordHash, "secret1") != nil {
		t.Fatalf("unexpected user %+v", u)
	}

	tests := []struct {
		name string
		in   CreateUserInput
		want int
	}{
		{"duplicate email", CreateUserInput{Name: "B", Email: "ana@example.com", Password: "secret1", Role: domain.RoleDirection}, http.StatusConflict},
		{"bad email", CreateUserInput{Name: "B", Email: "not-an-email", Password: "secret1", Role: domain.RoleDirection}, http.StatusBadRequest},
		{"short password", CreateUserInput{Name: "B", Email: "b@example.com", Password: "123", Role: domain.RoleDirection}, http.StatusBadRequest},
		{"unknown role", CreateUserInput{Name: "B", Email: "b@example.com", Password: "secret1", Role: 7}, http.StatusBadRequest},
		{"missing name", CreateUserInput{Email: "b@example.com", Password: "secret1", Role: domain.RoleDirection}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.in); statusOf(err) != tt.want {
				t.Fatalf("Create() = %v, want status %d", err, tt.want)
			}
		})
	}
}

func TestUpdateAndSoftDeleteUser(t *testing.T) {
	db := newMemDB()
	svc := NewUserService(fakeUsers{db}, nil, bcrypt.MinCost)
	ctx := context.Background()
	a, _ := svc.Create(ctx, CreateUserInput{Name: "Ana", Email: "ana@example.com", Password: "secret1", Role: domain.RoleDirection})
	b, _ := svc.Create(ctx, CreateUserInput{Name: "Beto", Email: "beto@example.com", Password: "secret1", Role: domain.RoleProjectLeader})

	taken := "ana@example.com"
	if _, err := svc.Update(ctx, b.ID, UpdateUserInput{Email: &taken}); statusOf(err) != http.StatusConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	name := "Beatriz"
	updated, err := svc.Update(ctx, b.ID, UpdateUserInput{Name: &name})
	if err != nil || updated.Name != "Beatriz" || updated.Email != "beto@example.com" {
		t.Fatalf("Update = %+v, %v", updated, err)
	}

	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := svc.Get(ctx, a.ID)
	if err != nil || got.Active {
		t.Fatalf("user should remain, inactive: %+v, %v", got, err)
	}
	role := domain.RoleDirection
	page, err := svc.ListByRole(ctx, role, PageRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListByRole: %v", err)
	}
	if page.TotalCount != 0 {
		t.Fatalf("inactive users must not be listed by role, got %d", page.TotalCount)
	}
	if _, err := svc.Get(ctx, 404); statusOf(err) != http.StatusNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
