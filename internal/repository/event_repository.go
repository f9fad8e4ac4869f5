package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

// EventRepository stores the append-only audit trail.
type EventRepository interface {
	Create(ctx context.Context, event *domain.TicketEvent) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEvent, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository builds repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.TicketEvent) error {
	const query = `
        INSERT INTO ticket_events (ticket_id, tenant_id, event_type, old_value, new_value, actor_id, actor_role, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		event.TicketID,
		event.TenantID,
		event.EventType,
		event.OldValue,
		event.NewValue,
		event.ActorID,
		event.ActorRole,
		event.CreatedAt,
	).Scan(&event.ID)
}

func (r *eventRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEvent, error) {
	const query = `
        SELECT id, ticket_id, tenant_id, event_type, old_value, new_value, actor_id, actor_role, created_at
        FROM ticket_events WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketEvent
	for rows.Next() {
		var event domain.TicketEvent
		if err := rows.Scan(
			&event.ID,
			&event.TicketID,
			&event.TenantID,
			&event.EventType,
			&event.OldValue,
			&event.NewValue,
			&event.ActorID,
			&event.ActorRole,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
