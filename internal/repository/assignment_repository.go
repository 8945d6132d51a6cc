package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/project-docs/internal/domain"
)

// AssignmentRepository stores coordinator-platform and leader-project links.
type AssignmentRepository interface {
	AssignPlatform(ctx context.Context, userID, platformID int64) error
	UnassignPlatform(ctx context.Context, userID, platformID int64) error
	PlatformAssigned(ctx context.Context, userID, platformID int64) (bool, error)
	PlatformIDsForUser(ctx context.Context, userID int64) ([]int64, error)
	CoordinatorsOf(ctx context.Context, platformID int64) ([]domain.User, error)
	AvailableCoordinators(ctx context.Context, platformID int64) ([]domain.User, error)

	AssignProject(ctx context.Context, userID, projectID int64) error
	UnassignProject(ctx context.Context, userID, projectID int64) error
	ProjectAssigned(ctx context.Context, userID, projectID int64) (bool, error)
	ProjectIDsForUser(ctx context.Context, userID int64) ([]int64, error)
	LeadersOf(ctx context.Context, projectID int64) ([]domain.User, error)
}

type assignmentRepository struct {
	pool dbtx
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func (r *assignmentRepository) AssignPlatform(ctx context.Context, userID, platformID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_platforms (user_id, platform_id) VALUES ($1, $2)`, userID, platformID)
	return translate(err)
}

func (r *assignmentRepository) UnassignPlatform(ctx context.Context, userID, platformID int64) error {
	return r.unlink(ctx, `DELETE FROM user_platforms WHERE user_id=$1 AND platform_id=$2`, userID, platformID)
}

func (r *assignmentRepository) PlatformAssigned(ctx context.Context, userID, platformID int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_platforms WHERE user_id=$1 AND platform_id=$2)`, userID, platformID)
}

func (r *assignmentRepository) PlatformIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	return r.ids(ctx, `SELECT platform_id FROM user_platforms WHERE user_id=$1 ORDER BY platform_id`, userID)
}

func (r *assignmentRepository) CoordinatorsOf(ctx context.Context, platformID int64) ([]domain.User, error) {
	query := `SELECT ` + prefixed("u", userColumns) + `
        FROM users u
        JOIN user_platforms up ON up.user_id = u.id
        WHERE up.platform_id=$1
        ORDER BY u.name`
	return r.users(ctx, query, platformID)
}

func (r *assignmentRepository) AvailableCoordinators(ctx context.Context, platformID int64) ([]domain.User, error) {
	query := `SELECT ` + prefixed("u", userColumns) + `
        FROM users u
        WHERE u.active AND u.role=$1
          AND NOT EXISTS (SELECT 1 FROM user_platforms up WHERE up.user_id = u.id AND up.platform_id=$2)
        ORDER BY u.name`
	return r.users(ctx, query, domain.RolePlatformCoordinator, platformID)
}

func (r *assignmentRepository) AssignProject(ctx context.Context, userID, projectID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_projects (user_id, project_id) VALUES ($1, $2)`, userID, projectID)
	return translate(err)
}

func (r *assignmentRepository) UnassignProject(ctx context.Context, userID, projectID int64) error {
	return r.unlink(ctx, `DELETE FROM user_projects WHERE user_id=$1 AND project_id=$2`, userID, projectID)
}

func (r *assignmentRepository) ProjectAssigned(ctx context.Context, userID, projectID int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_projects WHERE user_id=$1 AND project_id=$2)`, userID, projectID)
}

func (r *assignmentRepository) ProjectIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	return r.ids(ctx, `SELECT project_id FROM user_projects WHERE user_id=$1 ORDER BY project_id`, userID)
}

func (r *assignmentRepository) LeadersOf(ctx context.Context, projectID int64) ([]domain.User, error) {
	query := `SELECT ` + prefixed("u", userColumns) + `
        FROM users u
        JOIN user_projects up ON up.user_id = u.id
        WHERE up.project_id=$1
        ORDER BY u.name`
	return r.users(ctx, query, projectID)
}

func (r *assignmentRepository) unlink(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assignmentRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, query, args...).Scan(&ok)
	return ok, err
}

func (r *assignmentRepository) ids(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *assignmentRepository) users(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}
