package triage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

type stubTicketSource struct {
	open     []domain.Ticket
	resolved []domain.Ticket
}

func (s *stubTicketSource) ListOpenByEmployee(ctx context.Context, tenantID, employeeID string, since time.Time) ([]domain.Ticket, error) {
	return s.open, nil
}

func (s *stubTicketSource) ListRecentResolved(ctx context.Context, tenantID, category string, priority domain.TicketPriority, limit int) ([]domain.Ticket, error) {
	return s.resolved, nil
}

func TestClassifyIsDeterministic(t *testing.T) {
	engine := NewEngine(DefaultRules(), nil)
	first := engine.Classify("Cannot access my e-card", "the portal keeps rejecting my password")
	second := engine.Classify("Cannot access my e-card", "the portal keeps rejecting my password")
	assert.Equal(t, first, second)
}

func TestClassifyCategoryPriorityAndRisk(t *testing.T) {
	engine := NewEngine(DefaultRules(), nil)

	result := engine.Classify("Cannot access my e-card", "")
	assert.Equal(t, "ecard", result.Category)
	assert.Equal(t, domain.TicketPriorityHigh, result.Priority)
	assert.Equal(t, domain.SentimentNeutral, result.Sentiment)
	assert.Equal(t, 25, result.RiskScore)
	assert.Contains(t, result.Tags, "ecard")
}

func TestClassifyDefaultsWhenNothingMatches(t *testing.T) {
	engine := NewEngine(DefaultRules(), nil)

	result := engine.Classify("General note", "everything looks fine here")
	assert.Equal(t, "general", result.Category)
	assert.Equal(t, domain.TicketPriorityMedium, result.Priority)
	assert.Equal(t, 10, result.RiskScore)
}

func TestClassifySentimentPrecedence(t *testing.T) {
	engine := NewEngine(DefaultRules(), nil)

	// "frustrated" outranks "urgent" because frustrated rules come first.
	result := engine.Classify("This is unacceptable, I need this fixed urgent", "")
	assert.Equal(t, domain.SentimentFrustrated, result.Sentiment)
}

func TestClassifyRiskIndicatorsAccumulate(t *testing.T) {
	engine := NewEngine(DefaultRules(), nil)

	// medium base 10 + legal 20.
	result := engine.Classify("Question about my claim delay", "I will contact my lawyer about this delay")
	assert.Equal(t, "claims", result.Category)
	assert.GreaterOrEqual(t, result.RiskScore, 30)
}

func TestClassifyTagsAreCapped(t *testing.T) {
	engine := NewEngine(DefaultRules(), nil)

	result := engine.Classify(
		"claim denied",
		"payment failed in the app and portal, spouse was admitted to hospital, documents attached",
	)
	assert.Equal(t, "claims", result.Category)
	assert.Len(t, result.Tags, 5)
	assert.Equal(t, "claims", result.Tags[0])
}

func TestClampRisk(t *testing.T) {
	assert.Equal(t, 100, ClampRisk(150))
	assert.Equal(t, 0, ClampRisk(-5))
	assert.Equal(t, 55, ClampRisk(55))
}

func TestSentimentHelper(t *testing.T) {
	engine := NewEngine(DefaultRules(), nil)
	assert.Equal(t, domain.SentimentPositive, engine.Sentiment("Thanks, that worked!"))
	assert.Equal(t, domain.SentimentNeutral, engine.Sentiment("please see attached"))
}

func TestFindDuplicatesUsesWordOverlap(t *testing.T) {
	source := &stubTicketSource{open: []domain.Ticket{
		{ID: "dup", Title: "ecard not working today"},
		{ID: "unrelated", Title: "payroll deduction question"},
	}}
	engine := NewEngine(DefaultRules(), source)

	duplicates, err := engine.FindDuplicates(context.Background(), "acme", "emp-1", "ecard not working on mobile")
	require.NoError(t, err)
	assert.Equal(t, []string{"dup"}, duplicates)
}

func TestFindDuplicatesRequiresEmployee(t *testing.T) {
	engine := NewEngine(DefaultRules(), &stubTicketSource{})
	duplicates, err := engine.FindDuplicates(context.Background(), "acme", "", "anything at all")
	require.NoError(t, err)
	assert.Empty(t, duplicates)
}

func TestPredictResponseMinutesMedian(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	resolvedTicket := func(minutes int) domain.Ticket {
		resolved := base.Add(time.Duration(minutes) * time.Minute)
		return domain.Ticket{CreatedAt: base, ResolvedAt: &resolved}
	}

	engine := NewEngine(DefaultRules(), &stubTicketSource{resolved: []domain.Ticket{
		resolvedTicket(100), resolvedTicket(300), resolvedTicket(200),
	}})
	got, err := engine.PredictResponseMinutes(context.Background(), "acme", "claims", domain.TicketPriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, 200, got)

	engine = NewEngine(DefaultRules(), &stubTicketSource{resolved: []domain.Ticket{
		resolvedTicket(100), resolvedTicket(200), resolvedTicket(300), resolvedTicket(400),
	}})
	got, err = engine.PredictResponseMinutes(context.Background(), "acme", "claims", domain.TicketPriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, 250, got)
}

func TestPredictResponseMinutesFallback(t *testing.T) {
	engine := NewEngine(DefaultRules(), &stubTicketSource{})
	got, err := engine.PredictResponseMinutes(context.Background(), "acme", "claims", domain.TicketPriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, 480, got)
}
