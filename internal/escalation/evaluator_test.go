package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/benefits-desk/internal/domain"
	"github.com/spec-kit/benefits-desk/internal/sla"
)

func TestSingleReasonIsNotEnough(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{Status: domain.TicketStatusOpen, RiskScore: 75}

	evaluation := Evaluate(ticket, sla.Status(ticket, now), now)
	assert.False(t, evaluation.ShouldEscalate)
	assert.Equal(t, []Reason{ReasonHighRisk}, evaluation.Reasons)
}

func TestTwoReasonsTriggerEscalation(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		Status:    domain.TicketStatusOpen,
		RiskScore: 75,
		Sentiment: domain.SentimentFrustrated,
	}

	evaluation := Evaluate(ticket, sla.Status(ticket, now), now)
	assert.True(t, evaluation.ShouldEscalate)
	assert.ElementsMatch(t, []Reason{ReasonHighRisk, ReasonNegativeSentiment}, evaluation.Reasons)
}

func TestBreachAndPastDueCount(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)
	ticket := &domain.Ticket{
		Status:      domain.TicketStatusInProgress,
		SlaBreached: true,
		DueAt:       &due,
	}

	evaluation := Evaluate(ticket, sla.Status(ticket, now), now)
	assert.True(t, evaluation.ShouldEscalate)
	assert.ElementsMatch(t, []Reason{ReasonSlaBreached, ReasonPastDue}, evaluation.Reasons)
}

func TestTerminalTicketIsNotPastDue(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)
	resolved := now.Add(-30 * time.Minute)
	ticket := &domain.Ticket{
		Status:     domain.TicketStatusResolved,
		DueAt:      &due,
		ResolvedAt: &resolved,
	}

	evaluation := Evaluate(ticket, sla.Status(ticket, now), now)
	assert.False(t, evaluation.ShouldEscalate)
	assert.NotContains(t, evaluation.Reasons, ReasonPastDue)
}

func TestReopenedCountsAsReason(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	reopened := now.Add(-time.Hour)
	ticket := &domain.Ticket{
		Status:     domain.TicketStatusReopened,
		Sentiment:  domain.SentimentUrgent,
		ReopenedAt: &reopened,
	}

	evaluation := Evaluate(ticket, sla.Status(ticket, now), now)
	assert.True(t, evaluation.ShouldEscalate)
	assert.ElementsMatch(t, []Reason{ReasonNegativeSentiment, ReasonReopened}, evaluation.Reasons)
}
