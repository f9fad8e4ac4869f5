package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

// SlaPolicyRepository reads SLA policy configuration. Policies are edited
// by configuration tooling and read-only from the engine's perspective.
type SlaPolicyRepository interface {
	Create(ctx context.Context, policy *domain.SlaPolicy) error
	GetByID(ctx context.Context, id string) (*domain.SlaPolicy, error)
	ListActive(ctx context.Context, tenantID string, priority domain.TicketPriority) ([]domain.SlaPolicy, error)
}

type slaPolicyRepository struct {
	pool *pgxpool.Pool
}

// NewSlaPolicyRepository builds repository.
func NewSlaPolicyRepository(pool *pgxpool.Pool) SlaPolicyRepository {
	return &slaPolicyRepository{pool: pool}
}

func (r *slaPolicyRepository) Create(ctx context.Context, policy *domain.SlaPolicy) error {
	const query = `
        INSERT INTO sla_policies (tenant_id, feature_id, priority, first_response_minutes,
            resolution_minutes, business_hours_start, business_hours_end, business_days, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	var start, end *string
	var days []int32
	if policy.Calendar != nil {
		start = &policy.Calendar.Start
		end = &policy.Calendar.End
		days = weekdaysToInts(policy.Calendar.Weekdays)
	}
	return r.pool.QueryRow(ctx, query,
		policy.TenantID,
		policy.FeatureID,
		policy.Priority,
		policy.FirstResponseMinutes,
		policy.ResolutionMinutes,
		start,
		end,
		days,
		policy.Active,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
}

func (r *slaPolicyRepository) GetByID(ctx context.Context, id string) (*domain.SlaPolicy, error) {
	const query = `
        SELECT id, tenant_id, feature_id, priority, first_response_minutes, resolution_minutes,
               business_hours_start, business_hours_end, business_days, active, created_at, updated_at
        FROM sla_policies WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanPolicy(row)
}

// ListActive returns active policies matching the priority whose tenant is
// either unset (global) or equal to the caller's tenant.
func (r *slaPolicyRepository) ListActive(ctx context.Context, tenantID string, priority domain.TicketPriority) ([]domain.SlaPolicy, error) {
	const query = `
        SELECT id, tenant_id, feature_id, priority, first_response_minutes, resolution_minutes,
               business_hours_start, business_hours_end, business_days, active, created_at, updated_at
        FROM sla_policies
        WHERE active AND priority=$1 AND (tenant_id IS NULL OR tenant_id=$2)
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, priority, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SlaPolicy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *policy)
	}
	return result, rows.Err()
}

func scanPolicy(row pgx.Row) (*domain.SlaPolicy, error) {
	var policy domain.SlaPolicy
	var start, end *string
	var days []int32
	if err := row.Scan(
		&policy.ID,
		&policy.TenantID,
		&policy.FeatureID,
		&policy.Priority,
		&policy.FirstResponseMinutes,
		&policy.ResolutionMinutes,
		&start,
		&end,
		&days,
		&policy.Active,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if start != nil && end != nil {
		policy.Calendar = &domain.WorkingCalendar{
			Start:    *start,
			End:      *end,
			Weekdays: intsToWeekdays(days),
		}
	}
	return &policy, nil
}

func weekdaysToInts(days []time.Weekday) []int32 {
	result := make([]int32, 0, len(days))
	for _, day := range days {
		result = append(result, int32(day))
	}
	return result
}

func intsToWeekdays(days []int32) []time.Weekday {
	result := make([]time.Weekday, 0, len(days))
	for _, day := range days {
		result = append(result, time.Weekday(day))
	}
	return result
}
