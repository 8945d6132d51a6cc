package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/project-docs/internal/domain"
	"github.com/spec-kit/project-docs/internal/events"
	"github.com/spec-kit/project-docs/internal/fetcher"
	"github.com/spec-kit/project-docs/internal/repository"
)

// memDB backs every fake repository so assignments and owners stay consistent.
type memDB struct {
	mu           sync.Mutex
	nextID       int64
	users        map[int64]*domain.User
	platforms    map[int64]*domain.Platform
	projects     map[int64]*domain.Project
	deliverables map[int64]*domain.Deliverable
	receipts     map[int64]bool
	platformLink map[[2]int64]bool
	projectLink  map[[2]int64]bool
}

func newMemDB() *memDB {
	return &memDB{
		nextID:       100,
		users:        map[int64]*domain.User{},
		platforms:    map[int64]*domain.Platform{},
		projects:     map[int64]*domain.Project{},
		deliverables: map[int64]*domain.Deliverable{},
		receipts:     map[int64]bool{},
		platformLink: map[[2]int64]bool{},
		projectLink:  map[[2]int64]bool{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func slicePage[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

type fakeUsers struct{ db *memDB }

func (f fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	u.ID = f.db.id()
	u.CreatedAt = time.Now()
	c := *u
	f.db.users[u.ID] = &c
	return nil
}

func (f fakeUsers) Update(_ context.Context, u *domain.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	c := *u
	f.db.users[u.ID] = &c
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakeUsers) List(_ context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []domain.User
	for _, u := range f.db.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.ActiveOnly && !u.Active {
			continue
		}
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b domain.User) int { return int(a.ID - b.ID) })
	return slicePage(out, filter.Limit, filter.Offset), len(out), nil
}

func (f fakeUsers) TouchLastAccess(_ context.Context, id int64, at time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if u, ok := f.db.users[id]; ok {
		u.LastAccessAt = &at
	}
	return nil
}

type fakePlatforms struct{ db *memDB }

func (f fakePlatforms) Create(_ context.Context, p *domain.Platform) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p.ID = f.db.id()
	c := *p
	f.db.platforms[p.ID] = &c
	return nil
}

func (f fakePlatforms) Update(_ context.Context, p *domain.Platform) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.platforms[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	c := *p
	f.db.platforms[p.ID] = &c
	return nil
}

func (f fakePlatforms) GetByID(_ context.Context, id int64) (*domain.Platform, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.platforms[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *p
	return &c, nil
}

func (f fakePlatforms) NameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, p := range f.db.platforms {
		if p.ID != excludeID && strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakePlatforms) List(_ context.Context, filter repository.PlatformFilter) ([]domain.Platform, int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []domain.Platform
	for _, p := range f.db.platforms {
		if filter.Restrict && !slices.Contains(filter.IDs, p.ID) {
			continue
		}
		if filter.Active != nil && p.Active != *filter.Active {
			continue
		}
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b domain.Platform) int { return int(a.ID - b.ID) })
	return slicePage(out, filter.Limit, filter.Offset), len(out), nil
}

func (f fakePlatforms) ListByCoordinator(_ context.Context, userID int64) ([]domain.Platform, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []domain.Platform{}
	for link := range f.db.platformLink {
		if link[0] == userID {
			out = append(out, *f.db.platforms[link[1]])
		}
	}
	slices.SortFunc(out, func(a, b domain.Platform) int { return int(a.ID - b.ID) })
	return out, nil
}

func (f fakePlatforms) CountActiveProjects(_ context.Context, platformID int64) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n := 0
	for _, p := range f.db.projects {
		if p.PlatformID == platformID && p.Active {
			n++
		}
	}
	return n, nil
}

func (f fakePlatforms) Stats(_ context.Context, platformID int64) (*domain.PlatformStats, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.platforms[platformID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	stats := &domain.PlatformStats{PlatformID: p.ID, PlatformName: p.Name}
	for _, pr := range f.db.projects {
		if pr.PlatformID != platformID {
			continue
		}
		stats.TotalProjects++
		if pr.Active {
			stats.ActiveProjects++
		} else {
			stats.InactiveProjects++
		}
		if pr.EndDate != nil {
			stats.ProjectsWithEnd++
		} else {
			stats.ProjectsWithoutEnd++
		}
	}
	return stats, nil
}

func (f fakePlatforms) Summaries(_ context.Context) ([]domain.PlatformSummary, error) {
	return nil, nil
}

type fakeProjects struct{ db *memDB }

func (f fakeProjects) Create(_ context.Context, p *domain.Project) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p.ID = f.db.id()
	c := *p
	f.db.projects[p.ID] = &c
	return nil
}

func (f fakeProjects) Update(_ context.Context, p *domain.Project) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.projects[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	c := *p
	f.db.projects[p.ID] = &c
	return nil
}

func (f fakeProjects) GetByID(_ context.Context, id int64) (*domain.Project, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *p
	return &c, nil
}

func (f fakeProjects) NameTaken(_ context.Context, platformID int64, name string, excludeID int64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, p := range f.db.projects {
		if p.PlatformID == platformID && p.ID != excludeID && strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeProjects) List(_ context.Context, filter repository.ProjectFilter) ([]domain.Project, int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []domain.Project
	for _, p := range f.db.projects {
		if filter.PlatformID != nil && p.PlatformID != *filter.PlatformID {
			continue
		}
		if filter.LeaderID != nil && !f.db.projectLink[[2]int64{*filter.LeaderID, p.ID}] {
			continue
		}
		if filter.Restrict && !slices.Contains(filter.IDs, p.ID) {
			continue
		}
		if filter.Active != nil && p.Active != *filter.Active {
			continue
		}
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b domain.Project) int { return int(a.ID - b.ID) })
	return slicePage(out, filter.Limit, filter.Offset), len(out), nil
}

func (f fakeProjects) PlatformOf(_ context.Context, projectID int64) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.projects[projectID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	return p.PlatformID, nil
}

func (f fakeProjects) CountActiveDeliverables(_ context.Context, projectID int64) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n := 0
	for _, d := range f.db.deliverables {
		if d.ProjectID == projectID && d.Active {
			n++
		}
	}
	return n, nil
}

func (f fakeProjects) Stats(_ context.Context, projectID int64) (*domain.ProjectStats, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.projects[projectID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &domain.ProjectStats{ProjectID: p.ID, ProjectName: p.Name, StartDate: p.StartDate, EndDate: p.EndDate}, nil
}

type fakeDeliverables struct{ db *memDB }

func (f fakeDeliverables) Create(_ context.Context, d *domain.Deliverable) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	d.ID = f.db.id()
	c := *d
	f.db.deliverables[d.ID] = &c
	return nil
}

func (f fakeDeliverables) Update(_ context.Context, d *domain.Deliverable) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.deliverables[d.ID]; !ok {
		return pgx.ErrNoRows
	}
	c := *d
	f.db.deliverables[d.ID] = &c
	return nil
}

func (f fakeDeliverables) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.deliverables[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.db.deliverables, id)
	return nil
}

func (f fakeDeliverables) SetActive(_ context.Context, id int64, active bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	d, ok := f.db.deliverables[id]
	if !ok {
		return pgx.ErrNoRows
	}
	d.Active = active
	return nil
}

func (f fakeDeliverables) GetByID(_ context.Context, id int64) (*domain.Deliverable, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	d, ok := f.db.deliverables[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *d
	return &c, nil
}

func (f fakeDeliverables) NameTaken(_ context.Context, projectID int64, name string, excludeID int64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, d := range f.db.deliverables {
		if d.ProjectID == projectID && d.ID != excludeID && strings.EqualFold(d.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeDeliverables) List(_ context.Context, filter repository.DeliverableFilter) ([]domain.Deliverable, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []domain.Deliverable{}
	for _, d := range f.db.deliverables {
		if filter.ProjectID != nil && d.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.Restrict && !slices.Contains(filter.ProjectIDs, d.ProjectID) {
			continue
		}
		if filter.RestrictPlatforms {
			p, ok := f.db.projects[d.ProjectID]
			if !ok || !slices.Contains(filter.PlatformIDs, p.PlatformID) {
				continue
			}
		}
		if filter.ActiveOnly && !d.Active {
			continue
		}
		if filter.AvailableBy != nil && d.AvailableAt.After(*filter.AvailableBy) {
			continue
		}
		if filter.PendingAfter != nil && !d.AvailableAt.After(*filter.PendingAfter) {
			continue
		}
		out = append(out, *d)
	}
	slices.SortFunc(out, func(a, b domain.Deliverable) int { return int(a.ID - b.ID) })
	return out, nil
}

func (f fakeDeliverables) Owner(_ context.Context, id int64) (int64, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	d, ok := f.db.deliverables[id]
	if !ok {
		return 0, 0, pgx.ErrNoRows
	}
	return d.ProjectID, f.db.projects[d.ProjectID].PlatformID, nil
}

type fakeReceipts struct{ db *memDB }

func (f fakeReceipts) ExistsForDeliverable(_ context.Context, id int64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.receipts[id], nil
}

type fakeAssignments struct{ db *memDB }

func (f fakeAssignments) AssignPlatform(_ context.Context, userID, platformID int64) error {
	return f.link(f.db.platformLink, userID, platformID)
}

func (f fakeAssignments) UnassignPlatform(_ context.Context, userID, platformID int64) error {
	return f.unlink(f.db.platformLink, userID, platformID)
}

func (f fakeAssignments) PlatformAssigned(_ context.Context, userID, platformID int64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.platformLink[[2]int64{userID, platformID}], nil
}

func (f fakeAssignments) PlatformIDsForUser(_ context.Context, userID int64) ([]int64, error) {
	return f.ids(f.db.platformLink, userID), nil
}

func (f fakeAssignments) CoordinatorsOf(_ context.Context, platformID int64) ([]domain.User, error) {
	return f.usersOf(f.db.platformLink, platformID), nil
}

func (f fakeAssignments) AvailableCoordinators(_ context.Context, platformID int64) ([]domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []domain.User{}
	for _, u := range f.db.users {
		if u.Active && u.Role == domain.RolePlatformCoordinator && !f.db.platformLink[[2]int64{u.ID, platformID}] {
			out = append(out, *u)
		}
	}
	slices.SortFunc(out, func(a, b domain.User) int { return int(a.ID - b.ID) })
	return out, nil
}

func (f fakeAssignments) AssignProject(_ context.Context, userID, projectID int64) error {
	return f.link(f.db.projectLink, userID, projectID)
}

func (f fakeAssignments) UnassignProject(_ context.Context, userID, projectID int64) error {
	return f.unlink(f.db.projectLink, userID, projectID)
}

func (f fakeAssignments) ProjectAssigned(_ context.Context, userID, projectID int64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.projectLink[[2]int64{userID, projectID}], nil
}

func (f fakeAssignments) ProjectIDsForUser(_ context.Context, userID int64) ([]int64, error) {
	return f.ids(f.db.projectLink, userID), nil
}

func (f fakeAssignments) LeadersOf(_ context.Context, projectID int64) ([]domain.User, error) {
	return f.usersOf(f.db.projectLink, projectID), nil
}

func (f fakeAssignments) link(links map[[2]int64]bool, userID, targetID int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	key := [2]int64{userID, targetID}
	if links[key] {
		return repository.ErrDuplicate
	}
	links[key] = true
	return nil
}

func (f fakeAssignments) unlink(links map[[2]int64]bool, userID, targetID int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	key := [2]int64{userID, targetID}
	if !links[key] {
		return pgx.ErrNoRows
	}
	delete(links, key)
	return nil
}

func (f fakeAssignments) ids(links map[[2]int64]bool, userID int64) []int64 {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []int64
	for link := range links {
		if link[0] == userID {
			out = append(out, link[1])
		}
	}
	slices.Sort(out)
	return out
}

func (f fakeAssignments) usersOf(links map[[2]int64]bool, targetID int64) []domain.User {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []domain.User{}
	for link := range links {
		if link[1] == targetID {
			out = append(out, *f.db.users[link[0]])
		}
	}
	slices.SortFunc(out, func(a, b domain.User) int { return int(a.ID - b.ID) })
	return out
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

// stubFetcher returns a canned payload or error.
type stubFetcher struct {
	payload *fetcher.Payload
	err     error
	valid   bool
	calls   int
}

func (s *stubFetcher) Fetch(context.Context, domain.OriginKind, string) (*fetcher.Payload, error) {
	s.calls++
	return s.payload, s.err
}

func (s *stubFetcher) Validate(context.Context, domain.OriginKind, string) bool {
	return s.valid
}

// memAttempts is an in-process AttemptLimiter.
type memAttempts struct {
	max      int
	failures map[string]int
}

func (m *memAttempts) Allow(_ context.Context, key string) (bool, error) {
	return m.failures[strings.ToLower(key)] < m.max, nil
}

func (m *memAttempts) Fail(_ context.Context, key string) error {
	m.failures[strings.ToLower(key)]++
	return nil
}

func (m *memAttempts) Reset(_ context.Context, key string) error {
	delete(m.failures, strings.ToLower(key))
	return nil
}
