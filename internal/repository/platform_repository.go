package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/project-docs/internal/domain"
)

// PlatformFilter narrows platform listings. When Restrict is set only IDs
// are eligible, so an empty IDs list yields nothing.
type PlatformFilter struct {
	Active   *bool
	IDs      []int64
	Restrict bool
	Limit    int
	Offset   int
}

// PlatformRepository persists platforms and their aggregates.
type PlatformRepository interface {
	Create(ctx context.Context, platform *domain.Platform) error
	Update(ctx context.Context, platform *domain.Platform) error
	GetByID(ctx context.Context, id int64) (*domain.Platform, error)
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	List(ctx context.Context, filter PlatformFilter) ([]domain.Platform, int, error)
	ListByCoordinator(ctx context.Context, userID int64) ([]domain.Platform, error)
	CountActiveProjects(ctx context.Context, platformID int64) (int, error)
	Stats(ctx context.Context, platformID int64) (*domain.PlatformStats, error)
	Summaries(ctx context.Context) ([]domain.PlatformSummary, error)
}

type platformRepository struct {
	pool dbtx
}

// NewPlatformRepository instantiates the repository.
func NewPlatformRepository(pool *pgxpool.Pool) PlatformRepository {
	return &platformRepository{pool: pool}
}

const platformColumns = `p.id, p.name, p.description, p.active, p.created_at, p.updated_at`

func (r *platformRepository) Create(ctx context.Context, platform *domain.Platform) error {
	const query = `
        INSERT INTO platforms (name, description, active)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		platform.Name,
		platform.Description,
		platform.Active,
	).Scan(&platform.ID, &platform.CreatedAt)
	return translate(err)
}

func (r *platformRepository) Update(ctx context.Context, platform *domain.Platform) error {
	const query = `
        UPDATE platforms SET name=$1, description=$2, active=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		platform.Name,
		platform.Description,
		platform.Active,
		platform.ID,
	).Scan(&platform.UpdatedAt)
	return translate(err)
}

func (r *platformRepository) GetByID(ctx context.Context, id int64) (*domain.Platform, error) {
	query := `SELECT ` + platformColumns + ` FROM platforms p WHERE p.id=$1`
	return scanPlatform(r.pool.QueryRow(ctx, query, id))
}

func (r *platformRepository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM platforms WHERE LOWER(name)=LOWER($1) AND id<>$2)`
	var taken bool
	err := r.pool.QueryRow(ctx, query, name, excludeID).Scan(&taken)
	return taken, err
}

func (r *platformRepository) List(ctx context.Context, filter PlatformFilter) ([]domain.Platform, int, error) {
	var w where
	if filter.Active != nil {
		w.add("p.active=$%d", *filter.Active)
	}
	if filter.Restrict {
		w.add("p.id = ANY($%d)", filter.IDs)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM platforms p WHERE `+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + platformColumns + ` FROM platforms p WHERE ` + w.String() +
		` ORDER BY p.name ` + w.page(filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	platforms, err := scanPlatforms(rows)
	return platforms, total, err
}

func (r *platformRepository) ListByCoordinator(ctx context.Context, userID int64) ([]domain.Platform, error) {
	query := `SELECT ` + platformColumns + `
        FROM platforms p
        JOIN user_platforms up ON up.platform_id = p.id
        WHERE up.user_id=$1
        ORDER BY p.name`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlatforms(rows)
}

func (r *platformRepository) CountActiveProjects(ctx context.Context, platformID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE platform_id=$1 AND active`, platformID).Scan(&count)
	return count, err
}

func (r *platformRepository) Stats(ctx context.Context, platformID int64) (*domain.PlatformStats, error) {
	const query = `
        SELECT p.id, p.name,
               COUNT(pr.id),
               COUNT(pr.id) FILTER (WHERE pr.active),
               COUNT(pr.id) FILTER (WHERE NOT pr.active),
               COUNT(pr.id) FILTER (WHERE pr.end_date IS NOT NULL),
               COUNT(pr.id) FILTER (WHERE pr.end_date IS NULL)
        FROM platforms p
        LEFT JOIN projects pr ON pr.platform_id = p.id
        WHERE p.id=$1
        GROUP BY p.id, p.name`
	var stats domain.PlatformStats
	if err := r.pool.QueryRow(ctx, query, platformID).Scan(
		&stats.PlatformID,
		&stats.PlatformName,
		&stats.TotalProjects,
		&stats.ActiveProjects,
		&stats.InactiveProjects,
		&stats.ProjectsWithEnd,
		&stats.ProjectsWithoutEnd,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *platformRepository) Summaries(ctx context.Context) ([]domain.PlatformSummary, error) {
	const query = `
        SELECT p.id, p.name, p.active,
               COUNT(pr.id),
               COUNT(pr.id) FILTER (WHERE pr.active),
               p.created_at
        FROM platforms p
        LEFT JOIN projects pr ON pr.platform_id = p.id
        GROUP BY p.id, p.name, p.active, p.created_at
        ORDER BY p.name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.PlatformSummary, 0)
	for rows.Next() {
		var s domain.PlatformSummary
		if err := rows.Scan(
			&s.PlatformID,
			&s.Name,
			&s.Active,
			&s.TotalProjects,
			&s.ActiveProjects,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func scanPlatform(row pgx.Row) (*domain.Platform, error) {
	var p domain.Platform
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPlatforms(rows pgx.Rows) ([]domain.Platform, error) {
	result := make([]domain.Platform, 0)
	for rows.Next() {
		p, err := scanPlatform(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}
