package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
)

func newProjectFixture() (*memDB, *ProjectService) {
	db := newMemDB()
	db.platforms[1] = &domain.Platform{ID: 1, Name: "Norte", Active: true}
	db.platforms[2] = &domain.Platform{ID: 2, Name: "Sur", Active: false}
	svc := NewProjectService(ProjectDependencies{
		ProjectRepo:    fakeProjects{db},
		PlatformRepo:   fakePlatforms{db},
		UserRepo:       fakeUsers{db},
		AssignmentRepo: fakeAssignments{db},
		Gate:           auth.NewGate(NewOwnershipResolver(fakeProjects{db}, fakeDeliverables{db})),
	})
	svc.now = func() time.Time { return fixedNow }
	return db, svc
}

func TestCreateProjectRules(t *testing.T) {
	_, svc := newProjectFixture()
	ctx := context.Background()
	coord := auth.NewPrincipal(5, domain.RolePlatformCoordinator, []int64{1}, nil)
	start := fixedNow.AddDate(0, -1, 0)
	end := start.AddDate(0, 6, 0)
	before := start.AddDate(0, 0, -1)

	project, err := svc.Create(ctx, coord, CreateProjectInput{PlatformID: 1, Name: "Alfa", StartDate: start, EndDate: &end})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if project.PlatformName != "Norte" || !project.Active {
		t.Fatalf("unexpected project %+v", project)
	}

	director := auth.NewPrincipal(1, domain.RoleDirection, nil, nil)
	tests := []struct {
		name  string
		actor *auth.Principal
		in    CreateProjectInput
		want  int
	}{
		{"duplicate name", coord, CreateProjectInput{PlatformID: 1, Name: "ALFA", StartDate: start}, http.StatusConflict},
		{"end before start", coord, CreateProjectInput{PlatformID: 1, Name: "Beta", StartDate: start, EndDate: &before}, http.StatusBadRequest},
		{"unassigned platform", coord, CreateProjectInput{PlatformID: 2, Name: "Beta", StartDate: start}, http.StatusForbidden},
		{"inactive platform", director, CreateProjectInput{PlatformID: 2, Name: "Beta", StartDate: start}, http.StatusBadRequest},
		{"missing platform", director, CreateProjectInput{PlatformID: 44, Name: "Beta", StartDate: start}, http.StatusNotFound},
		{"leader role", auth.NewPrincipal(9, domain.RoleProjectLeader, nil, nil), CreateProjectInput{PlatformID: 1, Name: "Beta", StartDate: start}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.actor, tt.in); statusOf(err) != tt.want {
				t.Fatalf("Create() = %v, want status %d", err, tt.want)
			}
		})
	}
}

func TestProjectStatsDays(t *testing.T) {
	db, svc := newProjectFixture()
	end := fixedNow.AddDate(0, 0, 20)
	db.projects[3] = &domain.Project{ID: 3, PlatformID: 1, Name: "Gamma", StartDate: fixedNow.AddDate(0, 0, -10), EndDate: &end, Active: true}

	stats, err := svc.Stats(context.Background(), 3)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ElapsedDays != 10 || stats.RemainingDays == nil || *stats.RemainingDays != 20 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if _, err := svc.Stats(context.Background(), 404); statusOf(err) != http.StatusNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProjectDeleteBlockedByActiveDeliverables(t *testing.T) {
	db, svc := newProjectFixture()
	db.projects[3] = &domain.Project{ID: 3, PlatformID: 1, Name: "Gamma", Active: true}
	db.deliverables[1] = &domain.Deliverable{ID: 1, ProjectID: 3, Active: true}
	ctx := context.Background()

	if err := svc.Delete(ctx, 3); statusOf(err) != http.StatusConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	db.deliverables[1].Active = false
	if err := svc.Delete(ctx, 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if db.projects[3].Active {
		t.Fatal("project should be soft deleted")
	}
}

func TestByLeaderSelfOnly(t *testing.T) {
	db, svc := newProjectFixture()
	db.projects[3] = &domain.Project{ID: 3, PlatformID: 1, Name: "Gamma", Active: true}
	db.projectLink[[2]int64{15, 3}] = true
	leader := auth.NewPrincipal(15, domain.RoleProjectLeader, nil, []int64{3})
	req := PageRequest{Page: 1, PageSize: 10}

	if _, err := svc.ByLeader(context.Background(), leader, 16, req); statusOf(err) != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	got, err := svc.ByLeader(context.Background(), leader, 15, req)
	if err != nil {
		t.Fatalf("ByLeader: %v", err)
	}
	if got.TotalCount != 1 || got.Items[0].ID != 3 {
		t.Fatalf("unexpected page %+v", got)
	}
	if _, err := svc.ByLeader(context.Background(), leader, 15, PageRequest{Page: 0, PageSize: 10}); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected pagination error, got %v", err)
	}
}

func TestAssignLeader(t *testing.T) {
	db, svc := newProjectFixture()
	db.projects[3] = &domain.Project{ID: 3, PlatformID: 1, Name: "Gamma", Active: true}
	db.users[15] = &domain.User{ID: 15, Role: domain.RoleProjectLeader, Active: true}
	db.users[16] = &domain.User{ID: 16, Role: domain.RolePlatformCoordinator, Active: true}
	ctx := context.Background()

	if err := svc.AssignLeader(ctx, nil, 3, 16); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected role validation error, got %v", err)
	}
	if err := svc.AssignLeader(ctx, nil, 3, 15); err != nil {
		t.Fatalf("AssignLeader: %v", err)
	}
	leaders, err := svc.Leaders(ctx, 3)
	if err != nil || len(leaders) != 1 || leaders[0].ID != 15 {
		t.Fatalf("Leaders = %+v, %v", leaders, err)
	}
	if err := svc.UnassignLeader(ctx, nil, 3, 15); err != nil {
		t.Fatalf("UnassignLeader: %v", err)
	}
	if leaders, _ := svc.Leaders(ctx, 3); len(leaders) != 0 {
		t.Fatalf("leaders remain after unassign: %+v", leaders)
	}
}

func TestCreateProjectWithoutGateIsDenied(t *testing.T) {
	db, svc := newProjectFixture()
	svc.gate = nil
	director := auth.NewPrincipal(1, domain.RoleDirection, nil, nil)
	_, err := svc.Create(context.Background(), director, CreateProjectInput{PlatformID: 1, Name: "Alfa", StartDate: fixedNow})
	if statusOf(err) != http.StatusForbidden {
		t.Fatalf("expected forbidden without a gate, got %v", err)
	}
	if len(db.projects) != 0 {
		t.Fatal("nothing should be stored")
	}
}
