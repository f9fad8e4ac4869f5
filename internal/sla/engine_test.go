package sla

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

type stubPolicySource struct {
	policies []domain.SlaPolicy
	err      error
}

func (s *stubPolicySource) ListActive(ctx context.Context, tenantID string, priority domain.TicketPriority) ([]domain.SlaPolicy, error) {
	return s.policies, s.err
}

func strPtr(s string) *string { return &s }

func TestCalculateFallsBackToDefaults(t *testing.T) {
	engine := NewEngine(&stubPolicySource{})
	from := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	result, err := engine.Calculate(context.Background(), "acme", nil, domain.TicketPriorityHigh, from)
	require.NoError(t, err)

	assert.Nil(t, result.PolicyID)
	assert.Equal(t, 60, result.FirstResponseMinutes)
	assert.Equal(t, 480, result.ResolutionMinutes)
	assert.Equal(t, from.Add(60*time.Minute), result.FirstResponseDueAt)
	assert.Equal(t, from.Add(480*time.Minute), result.DueAt)
}

func TestCalculateUsesMatchingPolicy(t *testing.T) {
	engine := NewEngine(&stubPolicySource{policies: []domain.SlaPolicy{
		{ID: "p1", FirstResponseMinutes: 30, ResolutionMinutes: 240, Active: true},
	}})
	from := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	result, err := engine.Calculate(context.Background(), "acme", nil, domain.TicketPriorityHigh, from)
	require.NoError(t, err)

	require.NotNil(t, result.PolicyID)
	assert.Equal(t, "p1", *result.PolicyID)
	assert.Equal(t, from.Add(30*time.Minute), result.FirstResponseDueAt)
	assert.Equal(t, from.Add(240*time.Minute), result.DueAt)
}

func TestResolvePolicySpecificity(t *testing.T) {
	global := domain.SlaPolicy{ID: "global", Active: true}
	tenant := domain.SlaPolicy{ID: "tenant", TenantID: strPtr("acme"), Active: true}
	feature := domain.SlaPolicy{ID: "feature", FeatureID: strPtr("dental"), Active: true}
	both := domain.SlaPolicy{ID: "both", TenantID: strPtr("acme"), FeatureID: strPtr("dental"), Active: true}

	tests := []struct {
		name       string
		candidates []domain.SlaPolicy
		featureID  *string
		want       string
	}{
		{"tenant beats global", []domain.SlaPolicy{global, tenant}, nil, "tenant"},
		{"tenant beats feature", []domain.SlaPolicy{feature, tenant}, strPtr("dental"), "tenant"},
		{"tenant plus feature beats all", []domain.SlaPolicy{global, tenant, feature, both}, strPtr("dental"), "both"},
		{"first wins on tie", []domain.SlaPolicy{{ID: "a", Active: true}, {ID: "b", Active: true}}, nil, "a"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolvePolicy(tc.candidates, "acme", tc.featureID)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.ID)
		})
	}
}

func TestResolvePolicySkipsMismatches(t *testing.T) {
	candidates := []domain.SlaPolicy{
		{ID: "other-feature", FeatureID: strPtr("vision"), Active: true},
		{ID: "inactive", Active: false},
	}
	assert.Nil(t, ResolvePolicy(candidates, "acme", strPtr("dental")))
	assert.Nil(t, ResolvePolicy(candidates, "acme", nil))
}

func TestPauseResumeShiftsDueDates(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	frDue := t0.Add(60 * time.Minute)
	due := t0.Add(480 * time.Minute)
	ticket := &domain.Ticket{
		Status:             domain.TicketStatusOpen,
		FirstResponseDueAt: &frDue,
		DueAt:              &due,
	}

	require.True(t, ApplyPause(ticket, t0))
	require.NotNil(t, ticket.SlaPausedAt)

	// Second pause is a no-op.
	assert.False(t, ApplyPause(ticket, t0.Add(time.Minute)))

	pausedMinutes, changed := ApplyResume(ticket, t0.Add(45*time.Minute))
	require.True(t, changed)
	assert.Equal(t, 45, pausedMinutes)
	assert.Equal(t, 45, ticket.SlaPauseMinutes)
	assert.Nil(t, ticket.SlaPausedAt)
	assert.Equal(t, frDue.Add(45*time.Minute), *ticket.FirstResponseDueAt)
	assert.Equal(t, due.Add(45*time.Minute), *ticket.DueAt)

	// Resume without pause is a no-op.
	_, changed = ApplyResume(ticket, t0.Add(time.Hour))
	assert.False(t, changed)
}

func TestApplyPauseRefusesTerminalStatus(t *testing.T) {
	ticket := &domain.Ticket{Status: domain.TicketStatusResolved}
	assert.False(t, ApplyPause(ticket, time.Now()))
}

func TestStatusReportsBreaches(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	frDue := t0.Add(60 * time.Minute)
	due := t0.Add(480 * time.Minute)
	ticket := &domain.Ticket{
		ID:                 "t1",
		Status:             domain.TicketStatusOpen,
		FirstResponseDueAt: &frDue,
		DueAt:              &due,
	}

	early := Status(ticket, t0.Add(30*time.Minute))
	assert.False(t, early.FirstResponseBreached)
	assert.False(t, early.ResolutionBreached)

	late := Status(ticket, t0.Add(500*time.Minute))
	assert.True(t, late.FirstResponseBreached)
	assert.True(t, late.ResolutionBreached)

	// Paused tickets do not accrue breaches.
	paused := t0.Add(30 * time.Minute)
	ticket.SlaPausedAt = &paused
	snapshot := Status(ticket, t0.Add(500*time.Minute))
	assert.True(t, snapshot.Paused)
	assert.False(t, snapshot.FirstResponseBreached)
	assert.False(t, snapshot.ResolutionBreached)
	assert.Equal(t, 470, snapshot.EffectivePauseMinutes)
}

func TestStatusUsesActualTimestamps(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	frDue := t0.Add(60 * time.Minute)
	due := t0.Add(480 * time.Minute)
	responded := t0.Add(30 * time.Minute)
	resolved := t0.Add(600 * time.Minute)
	ticket := &domain.Ticket{
		Status:             domain.TicketStatusResolved,
		FirstResponseDueAt: &frDue,
		FirstResponseAt:    &responded,
		DueAt:              &due,
		ResolvedAt:         &resolved,
	}

	snapshot := Status(ticket, t0.Add(700*time.Minute))
	assert.False(t, snapshot.FirstResponseBreached)
	assert.True(t, snapshot.ResolutionBreached)
}

func TestShiftByPauseReappliesOffset(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{SlaPauseMinutes: 90}
	result := Result{
		PolicyID:           strPtr("p2"),
		FirstResponseDueAt: t0.Add(15 * time.Minute),
		DueAt:              t0.Add(120 * time.Minute),
	}

	ShiftByPause(ticket, result)
	assert.Equal(t, t0.Add(105*time.Minute), *ticket.FirstResponseDueAt)
	assert.Equal(t, t0.Add(210*time.Minute), *ticket.DueAt)
	require.NotNil(t, ticket.SlaPolicyID)
	assert.Equal(t, "p2", *ticket.SlaPolicyID)
}
