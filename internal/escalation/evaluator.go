package escalation

import (
	"time"

	"github.com/spec-kit/benefits-desk/internal/domain"
	"github.com/spec-kit/benefits-desk/internal/sla"
)

// Reason identifies a qualifying escalation signal.
type Reason string

const (
	ReasonSlaBreached       Reason = "sla_breached"
	ReasonPastDue           Reason = "past_due"
	ReasonHighRisk          Reason = "high_risk"
	ReasonNegativeSentiment Reason = "negative_sentiment"
	ReasonReopened          Reason = "reopened"
)

// A single signal is never enough; any one heuristic is too noisy on its own.
const minReasons = 2

const riskThreshold = 70

// Evaluation is the outcome of an escalation check. The evaluator never
// mutates the ticket; callers decide whether to act.
type Evaluation struct {
	ShouldEscalate bool
	Reasons        []Reason
}

// Evaluate collects qualifying reasons from a ticket snapshot and its SLA
// status and recommends escalation when two or more are present.
func Evaluate(ticket *domain.Ticket, status sla.StatusSnapshot, now time.Time) Evaluation {
	var reasons []Reason

	if ticket.SlaBreached {
		reasons = append(reasons, ReasonSlaBreached)
	}
	if status.DueAt != nil && now.After(*status.DueAt) && !ticket.Status.IsTerminal() {
		reasons = append(reasons, ReasonPastDue)
	}
	if ticket.RiskScore > riskThreshold {
		reasons = append(reasons, ReasonHighRisk)
	}
	if ticket.Sentiment == domain.SentimentFrustrated || ticket.Sentiment == domain.SentimentUrgent {
		reasons = append(reasons, ReasonNegativeSentiment)
	}
	if ticket.ReopenedAt != nil {
		reasons = append(reasons, ReasonReopened)
	}

	return Evaluation{
		ShouldEscalate: len(reasons) >= minReasons,
		Reasons:        reasons,
	}
}
