package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

// QueueAssignmentRepository reads routing configuration.
type QueueAssignmentRepository interface {
	Create(ctx context.Context, qa *domain.QueueAssignment) error
	ListActive(ctx context.Context, tenantID string) ([]domain.QueueAssignment, error)
}

type queueAssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewQueueAssignmentRepository builds repository.
func NewQueueAssignmentRepository(pool *pgxpool.Pool) QueueAssignmentRepository {
	return &queueAssignmentRepository{pool: pool}
}

func (r *queueAssignmentRepository) Create(ctx context.Context, qa *domain.QueueAssignment) error {
	const query = `
        INSERT INTO queue_assignments (tenant_id, feature_id, category, team_name, assignee_id, assignee_name, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		qa.TenantID,
		qa.FeatureID,
		qa.Category,
		qa.TeamName,
		qa.AssigneeID,
		qa.AssigneeName,
		qa.Active,
	).Scan(&qa.ID, &qa.CreatedAt, &qa.UpdatedAt)
}

func (r *queueAssignmentRepository) ListActive(ctx context.Context, tenantID string) ([]domain.QueueAssignment, error) {
	const query = `
        SELECT id, tenant_id, feature_id, category, team_name, assignee_id, assignee_name, active, created_at, updated_at
        FROM queue_assignments WHERE active AND tenant_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.QueueAssignment
	for rows.Next() {
		var qa domain.QueueAssignment
		if err := rows.Scan(
			&qa.ID,
			&qa.TenantID,
			&qa.FeatureID,
			&qa.Category,
			&qa.TeamName,
			&qa.AssigneeID,
			&qa.AssigneeName,
			&qa.Active,
			&qa.CreatedAt,
			&qa.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, qa)
	}
	return result, rows.Err()
}
