package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/benefits-desk/internal/repository"
)

const summaryMaxWords = 40

// SummaryService produces the asynchronous ticket summary enrichment.
// Tickets are enqueued onto a Redis list at creation and consumed by the
// summary worker; generation never blocks ticket creation and its failures
// are logged, never surfaced.
type SummaryService struct {
	tickets  repository.TicketRepository
	redis    *redis.Client
	queueKey string
	logger   *zap.Logger
}

// NewSummaryService creates the service.
func NewSummaryService(tickets repository.TicketRepository, client *redis.Client, queueKey string, logger *zap.Logger) *SummaryService {
	return &SummaryService{
		tickets:  tickets,
		redis:    client,
		queueKey: queueKey,
		logger:   logger,
	}
}

// Enqueue pushes a ticket ID onto the pending-summary queue.
func (s *SummaryService) Enqueue(ctx context.Context, ticketID string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.LPush(ctx, s.queueKey, ticketID).Err()
}

// Dequeue blocks for up to timeout waiting for the next pending ticket ID.
// Returns empty string on timeout.
func (s *SummaryService) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	if s.redis == nil {
		return "", nil
	}
	vals, err := s.redis.BRPop(ctx, timeout, s.queueKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if len(vals) < 2 {
		return "", nil
	}
	return vals[1], nil
}

// GenerateAndStore builds an extractive summary for the ticket and
// persists it. Deterministic and local: the first words of the
// description prefixed with the resolved category.
func (s *SummaryService) GenerateAndStore(ctx context.Context, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}

	summary := buildSummary(ticket.Category, ticket.Title, ticket.Description)
	ticket.Summary = &summary
	ticket.UpdatedAt = time.Now()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return err
	}
	s.logger.Debug("ticket summary stored", zap.String("ticket_id", ticketID))
	return nil
}

func buildSummary(category, title, description string) string {
	text := strings.TrimSpace(description)
	if text == "" {
		text = strings.TrimSpace(title)
	}
	words := strings.Fields(text)
	if len(words) > summaryMaxWords {
		words = words[:summaryMaxWords]
		words = append(words, "...")
	}
	return fmt.Sprintf("[%s] %s", category, strings.Join(words, " "))
}
