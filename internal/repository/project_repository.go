package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/project-docs/internal/domain"
)

// ProjectFilter narrows project listings. Restrict limits results to IDs.
type ProjectFilter struct {
	PlatformID *int64
	LeaderID   *int64
	IDs        []int64
	Restrict   bool
	Active     *bool
	Limit      int
	Offset     int
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	NameTaken(ctx context.Context, platformID int64, name string, excludeID int64) (bool, error)
	List(ctx context.Context, filter ProjectFilter) ([]domain.Project, int, error)
	PlatformOf(ctx context.Context, projectID int64) (int64, error)
	CountActiveDeliverables(ctx context.Context, projectID int64) (int, error)
	Stats(ctx context.Context, projectID int64) (*domain.ProjectStats, error)
}

type projectRepository struct {
	pool dbtx
}

// NewProjectRepository instantiates the repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

const projectSelect = `
        SELECT pr.id, pr.platform_id, p.name, p.active, pr.name, pr.description,
               pr.start_date, pr.end_date, pr.active, pr.created_at, pr.updated_at
        FROM projects pr
        JOIN platforms p ON p.id = pr.platform_id`

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	const query = `
        INSERT INTO projects (platform_id, name, description, start_date, end_date, active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		project.PlatformID,
		project.Name,
		project.Description,
		project.StartDate,
		project.EndDate,
		project.Active,
	).Scan(&project.ID, &project.CreatedAt)
	return translate(err)
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	const query = `
        UPDATE projects SET name=$1, description=$2, start_date=$3, end_date=$4, active=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.StartDate,
		project.EndDate,
		project.Active,
		project.ID,
	).Scan(&project.UpdatedAt)
	return translate(err)
}

func (r *projectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	return scanProject(r.pool.QueryRow(ctx, projectSelect+` WHERE pr.id=$1`, id))
}

func (r *projectRepository) NameTaken(ctx context.Context, platformID int64, name string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM projects WHERE platform_id=$1 AND LOWER(name)=LOWER($2) AND id<>$3)`
	var taken bool
	err := r.pool.QueryRow(ctx, query, platformID, name, excludeID).Scan(&taken)
	return taken, err
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]domain.Project, int, error) {
	var w where
	if filter.PlatformID != nil {
		w.add("pr.platform_id=$%d", *filter.PlatformID)
	}
	if filter.LeaderID != nil {
		w.add("EXISTS (SELECT 1 FROM user_projects up WHERE up.project_id = pr.id AND up.user_id=$%d)", *filter.LeaderID)
	}
	if filter.Restrict {
		w.add("pr.id = ANY($%d)", filter.IDs)
	}
	if filter.Active != nil {
		w.add("pr.active=$%d", *filter.Active)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM projects pr WHERE ` + w.String()
	if err := r.pool.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := projectSelect + ` WHERE ` + w.String() + ` ORDER BY pr.name ` + w.page(filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := make([]domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *project)
	}
	return result, total, rows.Err()
}

func (r *projectRepository) PlatformOf(ctx context.Context, projectID int64) (int64, error) {
	var platformID int64
	err := r.pool.QueryRow(ctx, `SELECT platform_id FROM projects WHERE id=$1`, projectID).Scan(&platformID)
	return platformID, err
}

func (r *projectRepository) CountActiveDeliverables(ctx context.Context, projectID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM deliverables WHERE project_id=$1 AND active`, projectID).Scan(&count)
	return count, err
}

func (r *projectRepository) Stats(ctx context.Context, projectID int64) (*domain.ProjectStats, error) {
	const query = `
        SELECT pr.id, pr.name, p.name, pr.start_date, pr.end_date,
               (SELECT COUNT(*) FROM deliverables d WHERE d.project_id = pr.id),
               (SELECT COUNT(*) FROM deliverables d WHERE d.project_id = pr.id AND d.active),
               (SELECT COUNT(*) FROM user_projects up WHERE up.project_id = pr.id),
               (SELECT COUNT(*) FROM user_projects up JOIN users u ON u.id = up.user_id
                 WHERE up.project_id = pr.id AND u.active)
        FROM projects pr
        JOIN platforms p ON p.id = pr.platform_id
        WHERE pr.id=$1`
	var stats domain.ProjectStats
	if err := r.pool.QueryRow(ctx, query, projectID).Scan(
		&stats.ProjectID,
		&stats.ProjectName,
		&stats.PlatformName,
		&stats.StartDate,
		&stats.EndDate,
		&stats.TotalDeliverables,
		&stats.ActiveDeliverables,
		&stats.TotalLeaders,
		&stats.ActiveLeaders,
	); err != nil {
		return nil, err
	}
	stats.InactiveDeliverables = stats.TotalDeliverables - stats.ActiveDeliverables
	return &stats, nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(
		&p.ID,
		&p.PlatformID,
		&p.PlatformName,
		&p.PlatformActive,
		&p.Name,
		&p.Description,
		&p.StartDate,
		&p.EndDate,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
