package sla

import (
	"github.com/spec-kit/benefits-desk/internal/domain"
)

// Target pairs the two SLA time budgets, in minutes.
type Target struct {
	FirstResponseMinutes int
	ResolutionMinutes    int
}

// defaultTargets are the built-in per-priority fallbacks used when no
// policy matches. Constructed once; never mutated.
var defaultTargets = map[domain.TicketPriority]Target{
	domain.TicketPriorityCritical: {FirstResponseMinutes: 15, ResolutionMinutes: 120},
	domain.TicketPriorityHigh:     {FirstResponseMinutes: 60, ResolutionMinutes: 480},
	domain.TicketPriorityMedium:   {FirstResponseMinutes: 240, ResolutionMinutes: 1440},
	domain.TicketPriorityLow:      {FirstResponseMinutes: 480, ResolutionMinutes: 2880},
}

// DefaultTarget returns the built-in target for a priority.
func DefaultTarget(priority domain.TicketPriority) Target {
	if target, ok := defaultTargets[priority]; ok {
		return target
	}
	return defaultTargets[domain.TicketPriorityMedium]
}

// Specificity scoring: a tenant-exact match outweighs a feature-exact
// match, and a fully global policy scores a minimal fallback.
const (
	scoreBase         = 1
	scoreTenantMatch  = 4
	scoreFeatureMatch = 2
)

// ResolvePolicy picks the most specific policy for the (tenant, feature)
// pair out of candidates already filtered by priority and tenant
// eligibility. Returns nil when nothing applies.
func ResolvePolicy(candidates []domain.SlaPolicy, tenantID string, featureID *string) *domain.SlaPolicy {
	var best *domain.SlaPolicy
	bestScore := 0
	for i := range candidates {
		policy := &candidates[i]
		if !policy.Active {
			continue
		}
		if policy.TenantID != nil && *policy.TenantID != tenantID {
			continue
		}
		if policy.FeatureID != nil && (featureID == nil || *policy.FeatureID != *featureID) {
			continue
		}
		score := scoreBase
		if policy.TenantID != nil {
			score += scoreTenantMatch
		}
		if policy.FeatureID != nil {
			score += scoreFeatureMatch
		}
		if score > bestScore {
			bestScore = score
			best = policy
		}
	}
	return best
}
