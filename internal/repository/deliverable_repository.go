package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/project-docs/internal/domain"
)

// DeliverableFilter narrows deliverable listings. Restrict limits results to
// deliverables of ProjectIDs, RestrictPlatforms to those under PlatformIDs.
// AvailableBy and PendingAfter compare against available_at.
type DeliverableFilter struct {
	ProjectID         *int64
	ProjectIDs        []int64
	Restrict          bool
	PlatformIDs       []int64
	RestrictPlatforms bool
	ActiveOnly        bool
	AvailableBy       *time.Time
	PendingAfter      *time.Time
}

// DeliverableRepository persists deliverables.
type DeliverableRepository interface {
	Create(ctx context.Context, deliverable *domain.Deliverable) error
	Update(ctx context.Context, deliverable *domain.Deliverable) error
	Delete(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
	GetByID(ctx context.Context, id int64) (*domain.Deliverable, error)
	NameTaken(ctx context.Context, projectID int64, name string, excludeID int64) (bool, error)
	List(ctx context.Context, filter DeliverableFilter) ([]domain.Deliverable, error)
	Owner(ctx context.Context, id int64) (projectID, platformID int64, err error)
}

type deliverableRepository struct {
	pool dbtx
}

// NewDeliverableRepository instantiates the repository.
func NewDeliverableRepository(pool *pgxpool.Pool) DeliverableRepository {
	return &deliverableRepository{pool: pool}
}

const deliverableSelect = `
        SELECT d.id, d.project_id, pr.name, p.name, d.name, d.title, d.description,
               d.available_at, d.origin_kind, d.origin_config, d.active, d.created_at, d.updated_at,
               (SELECT COUNT(*) FROM payment_receipts r WHERE r.deliverable_id = d.id)
        FROM deliverables d
        JOIN projects pr ON pr.id = d.project_id
        JOIN platforms p ON p.id = pr.platform_id`

func (r *deliverableRepository) Create(ctx context.Context, d *domain.Deliverable) error {
	const query = `
        INSERT INTO deliverables (project_id, name, title, description, available_at, origin_kind, origin_config, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		d.ProjectID,
		d.Name,
		d.Title,
		d.Description,
		d.AvailableAt,
		d.OriginKind,
		d.OriginConfig,
		d.Active,
	).Scan(&d.ID, &d.CreatedAt)
	return translate(err)
}

func (r *deliverableRepository) Update(ctx context.Context, d *domain.Deliverable) error {
	const query = `
        UPDATE deliverables SET name=$1, title=$2, description=$3, available_at=$4,
            origin_kind=$5, origin_config=$6, active=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		d.Name,
		d.Title,
		d.Description,
		d.AvailableAt,
		d.OriginKind,
		d.OriginConfig,
		d.Active,
		d.ID,
	).Scan(&d.UpdatedAt)
	return translate(err)
}

func (r *deliverableRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM deliverables WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *deliverableRepository) SetActive(ctx context.Context, id int64, active bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE deliverables SET active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *deliverableRepository) GetByID(ctx context.Context, id int64) (*domain.Deliverable, error) {
	return scanDeliverable(r.pool.QueryRow(ctx, deliverableSelect+` WHERE d.id=$1`, id))
}

func (r *deliverableRepository) NameTaken(ctx context.Context, projectID int64, name string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM deliverables WHERE project_id=$1 AND LOWER(name)=LOWER($2) AND id<>$3)`
	var taken bool
	err := r.pool.QueryRow(ctx, query, projectID, name, excludeID).Scan(&taken)
	return taken, err
}

func (r *deliverableRepository) List(ctx context.Context, filter DeliverableFilter) ([]domain.Deliverable, error) {
	query, args := deliverableListQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Deliverable, 0)
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *deliverableRepository) Owner(ctx context.Context, id int64) (int64, int64, error) {
	const query = `
        SELECT d.project_id, pr.platform_id
        FROM deliverables d
        JOIN projects pr ON pr.id = d.project_id
        WHERE d.id=$1`
	var projectID, platformID int64
	err := r.pool.QueryRow(ctx, query, id).Scan(&projectID, &platformID)
	return projectID, platformID, err
}

// deliverableListQuery builds the listing statement. A restriction with an
// empty id list matches nothing.
func deliverableListQuery(filter DeliverableFilter) (string, []any) {
	var w where
	if filter.ProjectID != nil {
		w.add("d.project_id=$%d", *filter.ProjectID)
	}
	if filter.Restrict {
		w.add("d.project_id = ANY($%d)", nonNilIDs(filter.ProjectIDs))
	}
	if filter.RestrictPlatforms {
		w.add("pr.platform_id = ANY($%d)", nonNilIDs(filter.PlatformIDs))
	}
	if filter.ActiveOnly {
		w.raw("d.active")
	}
	if filter.AvailableBy != nil {
		w.add("d.available_at <= $%d", *filter.AvailableBy)
	}
	if filter.PendingAfter != nil {
		w.add("d.available_at > $%d", *filter.PendingAfter)
	}
	return deliverableSelect + ` WHERE ` + w.String() + ` ORDER BY d.available_at, d.id`, w.args
}

func scanDeliverable(row pgx.Row) (*domain.Deliverable, error) {
	var d domain.Deliverable
	if err := row.Scan(
		&d.ID,
		&d.ProjectID,
		&d.ProjectName,
		&d.PlatformName,
		&d.Name,
		&d.Title,
		&d.Description,
		&d.AvailableAt,
		&d.OriginKind,
		&d.OriginConfig,
		&d.Active,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.ReceiptCount,
	); err != nil {
		return nil, err
	}
	return &d, nil
}
