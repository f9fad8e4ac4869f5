package sla

import (
	"context"
	"time"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

// PolicySource supplies active policies eligible for a tenant and priority.
type PolicySource interface {
	ListActive(ctx context.Context, tenantID string, priority domain.TicketPriority) ([]domain.SlaPolicy, error)
}

// Engine computes SLA due dates, pause bookkeeping, and breach status.
// The engine never writes: it returns computed values and applies pure
// mutations to ticket copies that the lifecycle controller persists.
type Engine struct {
	policies PolicySource
}

// NewEngine constructs the engine.
func NewEngine(policies PolicySource) *Engine {
	return &Engine{policies: policies}
}

// Result is the outcome of a due-date calculation.
type Result struct {
	PolicyID             *string
	FirstResponseMinutes int
	ResolutionMinutes    int
	FirstResponseDueAt   time.Time
	DueAt                time.Time
}

// Calculate selects the most specific policy and derives both due dates
// from the given start time. Callers pass "now" at creation and the
// ticket's original created_at when a priority change replaces the whole
// SLA horizon.
func (e *Engine) Calculate(ctx context.Context, tenantID string, featureID *string, priority domain.TicketPriority, from time.Time) (Result, error) {
	target := DefaultTarget(priority)
	var policyID *string
	var calendar *domain.WorkingCalendar

	if e.policies != nil {
		candidates, err := e.policies.ListActive(ctx, tenantID, priority)
		if err != nil {
			return Result{}, err
		}
		if policy := ResolvePolicy(candidates, tenantID, featureID); policy != nil {
			target = Target{
				FirstResponseMinutes: policy.FirstResponseMinutes,
				ResolutionMinutes:    policy.ResolutionMinutes,
			}
			id := policy.ID
			policyID = &id
			calendar = policy.Calendar
		}
	}

	return Result{
		PolicyID:             policyID,
		FirstResponseMinutes: target.FirstResponseMinutes,
		ResolutionMinutes:    target.ResolutionMinutes,
		FirstResponseDueAt:   AddWorkingMinutes(from, target.FirstResponseMinutes, calendar),
		DueAt:                AddWorkingMinutes(from, target.ResolutionMinutes, calendar),
	}, nil
}

// StatusSnapshot reports SLA standing for a ticket at a point in time.
// The remaining-minutes figures are informational for dashboards; breach
// flags are recomputed from the canonical due timestamps.
type StatusSnapshot struct {
	TicketID                      string
	PolicyID                      *string
	Paused                        bool
	EffectivePauseMinutes         int
	FirstResponseDueAt            *time.Time
	FirstResponseAt               *time.Time
	FirstResponseBreached         bool
	FirstResponseRemainingMinutes *int
	DueAt                         *time.Time
	ResolvedAt                    *time.Time
	ResolutionBreached            bool
	ResolutionRemainingMinutes    *int
}

// Status computes the SLA standing of a ticket at the given time.
func Status(ticket *domain.Ticket, now time.Time) StatusSnapshot {
	snapshot := StatusSnapshot{
		TicketID:           ticket.ID,
		PolicyID:           ticket.SlaPolicyID,
		Paused:             ticket.SlaPausedAt != nil,
		FirstResponseDueAt: ticket.FirstResponseDueAt,
		FirstResponseAt:    ticket.FirstResponseAt,
		DueAt:              ticket.DueAt,
		ResolvedAt:         ticket.ResolvedAt,
	}

	snapshot.EffectivePauseMinutes = ticket.SlaPauseMinutes
	if ticket.SlaPausedAt != nil {
		snapshot.EffectivePauseMinutes += int(now.Sub(*ticket.SlaPausedAt).Minutes())
	}

	if due := ticket.FirstResponseDueAt; due != nil {
		remaining := int(due.Sub(now).Minutes())
		snapshot.FirstResponseRemainingMinutes = &remaining
		switch {
		case ticket.FirstResponseAt != nil:
			snapshot.FirstResponseBreached = ticket.FirstResponseAt.After(*due)
		case !snapshot.Paused && now.After(*due):
			snapshot.FirstResponseBreached = true
		}
	}

	if due := ticket.DueAt; due != nil {
		remaining := int(due.Sub(now).Minutes())
		snapshot.ResolutionRemainingMinutes = &remaining
		switch {
		case ticket.ResolvedAt != nil:
			snapshot.ResolutionBreached = ticket.ResolvedAt.After(*due)
		case !ticket.Status.IsTerminal() && !snapshot.Paused && now.After(*due):
			snapshot.ResolutionBreached = true
		}
	}

	return snapshot
}

// ApplyPause stops the SLA clock on the ticket. No-op when already paused
// or terminal; reports whether anything changed.
func ApplyPause(ticket *domain.Ticket, now time.Time) bool {
	if ticket.SlaPausedAt != nil || ticket.Status.IsTerminal() {
		return false
	}
	paused := now
	ticket.SlaPausedAt = &paused
	return true
}

// ApplyResume restarts the SLA clock: the elapsed pause is added to the
// cumulative pause duration and both due dates move forward by the same
// amount. No-op when the clock is not paused.
func ApplyResume(ticket *domain.Ticket, now time.Time) (pausedMinutes int, changed bool) {
	if ticket.SlaPausedAt == nil {
		return 0, false
	}
	pausedMinutes = int(now.Sub(*ticket.SlaPausedAt).Minutes())
	if pausedMinutes < 0 {
		pausedMinutes = 0
	}
	ticket.SlaPauseMinutes += pausedMinutes
	ticket.SlaPausedAt = nil
	shift := time.Duration(pausedMinutes) * time.Minute
	if ticket.DueAt != nil {
		shifted := ticket.DueAt.Add(shift)
		ticket.DueAt = &shifted
	}
	if ticket.FirstResponseDueAt != nil {
		shifted := ticket.FirstResponseDueAt.Add(shift)
		ticket.FirstResponseDueAt = &shifted
	}
	return pausedMinutes, true
}

// ShiftByPause re-applies the accumulated pause offset to freshly computed
// due dates, used after a priority change recomputes the SLA horizon from
// the ticket's creation time.
func ShiftByPause(ticket *domain.Ticket, result Result) {
	shift := time.Duration(ticket.SlaPauseMinutes) * time.Minute
	due := result.DueAt.Add(shift)
	firstResponseDue := result.FirstResponseDueAt.Add(shift)
	ticket.DueAt = &due
	ticket.FirstResponseDueAt = &firstResponseDue
	ticket.SlaPolicyID = result.PolicyID
}
