package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

// EscalationRuleRepository reads escalation rule configuration.
type EscalationRuleRepository interface {
	Create(ctx context.Context, rule *domain.EscalationRule) error
	ListActive(ctx context.Context, tenantID string) ([]domain.EscalationRule, error)
}

type escalationRuleRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRuleRepository builds repository.
func NewEscalationRuleRepository(pool *pgxpool.Pool) EscalationRuleRepository {
	return &escalationRuleRepository{pool: pool}
}

func (r *escalationRuleRepository) Create(ctx context.Context, rule *domain.EscalationRule) error {
	const query = `
        INSERT INTO escalation_rules (tenant_id, name, condition_type, condition_value, action_type, action_value, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		rule.TenantID,
		rule.Name,
		rule.ConditionType,
		rule.ConditionValue,
		rule.ActionType,
		rule.ActionValue,
		rule.Active,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}

func (r *escalationRuleRepository) ListActive(ctx context.Context, tenantID string) ([]domain.EscalationRule, error) {
	const query = `
        SELECT id, tenant_id, name, condition_type, condition_value, action_type, action_value, active, created_at, updated_at
        FROM escalation_rules WHERE active AND tenant_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EscalationRule
	for rows.Next() {
		var rule domain.EscalationRule
		if err := rows.Scan(
			&rule.ID,
			&rule.TenantID,
			&rule.Name,
			&rule.ConditionType,
			&rule.ConditionValue,
			&rule.ActionType,
			&rule.ActionValue,
			&rule.Active,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}
