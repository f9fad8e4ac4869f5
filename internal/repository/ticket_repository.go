package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

const ticketColumns = `id, reference_key, tenant_id, employee_id, employee_name, employee_email,
	feature_id, feature_name, category, subcategory, title, description, status, priority, channel,
	form_data, tags, risk_score, sentiment, summary, sla_policy_id, first_response_due_at,
	first_response_at, due_at, sla_paused_at, sla_pause_minutes, sla_breached,
	assignee_id, assignee_name, assignee_team, created_at, updated_at, resolved_at, closed_at, reopened_at`

var ticketColumnList = []string{
	"id", "reference_key", "tenant_id", "employee_id", "employee_name", "employee_email",
	"feature_id", "feature_name", "category", "subcategory", "title", "description", "status",
	"priority", "channel", "form_data", "tags", "risk_score", "sentiment", "summary",
	"sla_policy_id", "first_response_due_at", "first_response_at", "due_at", "sla_paused_at",
	"sla_pause_minutes", "sla_breached", "assignee_id", "assignee_name", "assignee_team",
	"created_at", "updated_at", "resolved_at", "closed_at", "reopened_at",
}

// TicketFilter captures listing parameters.
type TicketFilter struct {
	TenantID    *string
	EmployeeID  *string
	FeatureID   *string
	Category    *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListOpenByEmployee(ctx context.Context, tenantID, employeeID string, since time.Time) ([]domain.Ticket, error)
	ListRecentResolved(ctx context.Context, tenantID, category string, priority domain.TicketPriority, limit int) ([]domain.Ticket, error)
	ListBreachCandidates(ctx context.Context, tenantID *string, now time.Time) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (reference_key, tenant_id, employee_id, employee_name, employee_email,
            feature_id, feature_name, category, subcategory, title, description, status, priority,
            channel, form_data, tags, risk_score, sentiment, sla_policy_id, first_response_due_at,
            due_at, assignee_id, assignee_name, assignee_team, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$25)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		ticket.ReferenceKey,
		ticket.TenantID,
		ticket.EmployeeID,
		ticket.EmployeeName,
		ticket.EmployeeEmail,
		ticket.FeatureID,
		ticket.FeatureName,
		ticket.Category,
		ticket.Subcategory,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Channel,
		ticket.FormData,
		ticket.Tags,
		ticket.RiskScore,
		ticket.Sentiment,
		ticket.SlaPolicyID,
		ticket.FirstResponseDueAt,
		ticket.DueAt,
		ticket.AssigneeID,
		ticket.AssigneeName,
		ticket.AssigneeTeam,
		ticket.CreatedAt,
	).Scan(&ticket.ID)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET category=$1, subcategory=$2, status=$3, priority=$4, tags=$5,
            risk_score=$6, sentiment=$7, summary=$8, sla_policy_id=$9, first_response_due_at=$10,
            first_response_at=$11, due_at=$12, sla_paused_at=$13, sla_pause_minutes=$14,
            sla_breached=$15, assignee_id=$16, assignee_name=$17, assignee_team=$18,
            resolved_at=$19, closed_at=$20, reopened_at=$21, updated_at=$22
        WHERE id=$23`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Category,
		ticket.Subcategory,
		ticket.Status,
		ticket.Priority,
		ticket.Tags,
		ticket.RiskScore,
		ticket.Sentiment,
		ticket.Summary,
		ticket.SlaPolicyID,
		ticket.FirstResponseDueAt,
		ticket.FirstResponseAt,
		ticket.DueAt,
		ticket.SlaPausedAt,
		ticket.SlaPauseMinutes,
		ticket.SlaBreached,
		ticket.AssigneeID,
		ticket.AssigneeName,
		ticket.AssigneeTeam,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ReopenedAt,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicket(row)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	builder := psql.Select(ticketColumnList...).From("tickets")

	if filter.TenantID != nil {
		builder = builder.Where(sq.Eq{"tenant_id": *filter.TenantID})
	}
	if filter.EmployeeID != nil {
		builder = builder.Where(sq.Eq{"employee_id": *filter.EmployeeID})
	}
	if filter.FeatureID != nil {
		builder = builder.Where(sq.Eq{"feature_id": *filter.FeatureID})
	}
	if filter.Category != nil {
		builder = builder.Where(sq.Eq{"category": *filter.Category})
	}
	if filter.AssigneeID != nil {
		builder = builder.Where(sq.Eq{"assignee_id": *filter.AssigneeID})
	}
	if len(filter.Statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": filter.Statuses})
	}
	if len(filter.Priorities) > 0 {
		builder = builder.Where(sq.Eq{"priority": filter.Priorities})
	}
	if filter.SearchTerm != nil && *filter.SearchTerm != "" {
		like := "%" + *filter.SearchTerm + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"title": like},
			sq.ILike{"description": like},
		})
	}
	if filter.CreatedFrom != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		builder = builder.Where(sq.LtOrEq{"created_at": *filter.CreatedTo})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder = builder.OrderBy("updated_at DESC").Limit(uint64(limit)).Offset(uint64(offset))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListOpenByEmployee(ctx context.Context, tenantID, employeeID string, since time.Time) ([]domain.Ticket, error) {
	builder := psql.Select(ticketColumnList...).From("tickets").
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(sq.Eq{"employee_id": employeeID}).
		Where(sq.NotEq{"status": []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusClosed}}).
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListRecentResolved(ctx context.Context, tenantID, category string, priority domain.TicketPriority, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	builder := psql.Select(ticketColumnList...).From("tickets").
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(sq.Eq{"category": category}).
		Where(sq.Eq{"priority": priority}).
		Where("resolved_at IS NOT NULL").
		OrderBy("resolved_at DESC").
		Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListBreachCandidates(ctx context.Context, tenantID *string, now time.Time) ([]domain.Ticket, error) {
	builder := psql.Select(ticketColumnList...).From("tickets").
		Where(sq.Eq{"sla_breached": false}).
		Where("sla_paused_at IS NULL").
		Where("due_at IS NOT NULL").
		Where(sq.Lt{"due_at": now}).
		Where(sq.NotEq{"status": []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusClosed}})
	if tenantID != nil {
		builder = builder.Where(sq.Eq{"tenant_id": *tenantID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ReferenceKey,
		&ticket.TenantID,
		&ticket.EmployeeID,
		&ticket.EmployeeName,
		&ticket.EmployeeEmail,
		&ticket.FeatureID,
		&ticket.FeatureName,
		&ticket.Category,
		&ticket.Subcategory,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Channel,
		&ticket.FormData,
		&ticket.Tags,
		&ticket.RiskScore,
		&ticket.Sentiment,
		&ticket.Summary,
		&ticket.SlaPolicyID,
		&ticket.FirstResponseDueAt,
		&ticket.FirstResponseAt,
		&ticket.DueAt,
		&ticket.SlaPausedAt,
		&ticket.SlaPauseMinutes,
		&ticket.SlaBreached,
		&ticket.AssigneeID,
		&ticket.AssigneeName,
		&ticket.AssigneeTeam,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.ReopenedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
