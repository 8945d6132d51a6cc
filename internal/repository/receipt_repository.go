package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReceiptRepository reads payment receipt metadata. Receipts are uploaded
// elsewhere; this service only needs to know whether any exist.
type ReceiptRepository interface {
	ExistsForDeliverable(ctx context.Context, deliverableID int64) (bool, error)
}

type receiptRepository struct {
	pool dbtx
}

// NewReceiptRepository instantiates the repository.
func NewReceiptRepository(pool *pgxpool.Pool) ReceiptRepository {
	return &receiptRepository{pool: pool}
}

func (r *receiptRepository) ExistsForDeliverable(ctx context.Context, deliverableID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM payment_receipts WHERE deliverable_id=$1)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, deliverableID).Scan(&exists)
	return exists, err
}
