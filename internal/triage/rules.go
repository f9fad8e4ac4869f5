package triage

import (
	"regexp"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

// CategoryRule maps a category to its matching patterns. Rules are
// evaluated in slice order; the first category with any matching pattern
// wins.
type CategoryRule struct {
	Category string
	Patterns []*regexp.Regexp
}

// PriorityRule holds substring keywords for one priority rank. Evaluated
// in fixed rank order critical -> high -> medium -> low.
type PriorityRule struct {
	Priority domain.TicketPriority
	Keywords []string
}

// SentimentRule holds substring keywords for one sentiment label.
// Evaluated in fixed precedence frustrated -> urgent -> negative ->
// positive; neutral is the default.
type SentimentRule struct {
	Sentiment domain.Sentiment
	Keywords  []string
}

// RiskIndicator adds a fixed weight when its pattern matches.
type RiskIndicator struct {
	Name    string
	Pattern *regexp.Regexp
	Weight  int
}

// TagRule appends a tag when its pattern matches.
type TagRule struct {
	Tag     string
	Pattern *regexp.Regexp
}

// Rules is the immutable triage configuration, constructed once at process
// start and shared by reference. Ordered slices, not maps: iteration order
// is part of the contract.
type Rules struct {
	Categories      []CategoryRule
	Priorities      []PriorityRule
	Sentiments      []SentimentRule
	PriorityBase    map[domain.TicketPriority]int
	SentimentDelta  map[domain.Sentiment]int
	RiskIndicators  []RiskIndicator
	Tags            []TagRule
	MaxTags         int
	DefaultCategory string
	DefaultPriority domain.TicketPriority

	// FallbackResponseMinutes backs the response-time prediction when a
	// tenant has no resolution history for a category/priority pair.
	FallbackResponseMinutes map[domain.TicketPriority]int
}

// DefaultRules builds the built-in rule set for the employee-benefits
// domain.
func DefaultRules() *Rules {
	return &Rules{
		Categories: []CategoryRule{
			{Category: "claims", Patterns: compile(
				`\bclaims?\b`, `cashless`, `hospitali[sz]ation`, `settlement`, `claim (status|denied|rejected)`,
			)},
			{Category: "enrollment", Patterns: compile(
				`enroll`, `open enrollment`, `add (my )?(spouse|child|parent)`, `\bdependent\b`,
			)},
			{Category: "ecard", Patterns: compile(
				`e-?card`, `insurance card`, `policy card`, `id card`,
			)},
			{Category: "reimbursement", Patterns: compile(
				`reimburs`, `out[- ]of[- ]pocket`, `\brefund\b`,
			)},
			{Category: "wellness", Patterns: compile(
				`wellness`, `health check`, `\bgym\b`, `\bopd\b`, `annual checkup`,
			)},
			{Category: "account_access", Patterns: compile(
				`\blog ?in\b`, `\bpassword\b`, `\botp\b`, `cannot access`, `sign[- ]?in`, `locked out`,
			)},
			{Category: "payroll", Patterns: compile(
				`payroll`, `deduction`, `\bsalary\b`, `payslip`,
			)},
		},
		Priorities: []PriorityRule{
			{Priority: domain.TicketPriorityCritical, Keywords: []string{
				"urgent", "emergency", "immediately", "asap", "critical", "hospitalized", "admitted",
			}},
			{Priority: domain.TicketPriorityHigh, Keywords: []string{
				"cannot", "unable", "denied", "rejected", "blocked", "failed", "stuck",
			}},
			{Priority: domain.TicketPriorityMedium, Keywords: []string{
				"issue", "problem", "error", "not working", "delay", "missing",
			}},
			{Priority: domain.TicketPriorityLow, Keywords: []string{
				"question", "how to", "how do i", "clarification", "information", "request",
			}},
		},
		Sentiments: []SentimentRule{
			{Sentiment: domain.SentimentFrustrated, Keywords: []string{
				"frustrated", "angry", "unacceptable", "terrible", "worst", "fed up", "ridiculous",
			}},
			{Sentiment: domain.SentimentUrgent, Keywords: []string{
				"urgent", "asap", "immediately", "emergency", "right away",
			}},
			{Sentiment: domain.SentimentNegative, Keywords: []string{
				"disappointed", "unhappy", "poor", "slow", "delayed", "still waiting",
			}},
			{Sentiment: domain.SentimentPositive, Keywords: []string{
				"thank", "thanks", "appreciate", "great", "excellent",
			}},
		},
		PriorityBase: map[domain.TicketPriority]int{
			domain.TicketPriorityCritical: 40,
			domain.TicketPriorityHigh:     25,
			domain.TicketPriorityMedium:   10,
			domain.TicketPriorityLow:      0,
		},
		SentimentDelta: map[domain.Sentiment]int{
			domain.SentimentFrustrated: 30,
			domain.SentimentUrgent:     25,
			domain.SentimentNegative:   15,
			domain.SentimentNeutral:    0,
			domain.SentimentPositive:   -5,
		},
		RiskIndicators: []RiskIndicator{
			{Name: "escalation_language", Pattern: regexp.MustCompile(`escalat|supervisor|manager|complaint`), Weight: 15},
			{Name: "legal_mention", Pattern: regexp.MustCompile(`legal|lawyer|attorney|lawsuit|\bsue\b|court`), Weight: 20},
			{Name: "regulatory_mention", Pattern: regexp.MustCompile(`regulator|compliance|ombudsman|labor board`), Weight: 20},
			{Name: "media_mention", Pattern: regexp.MustCompile(`\bmedia\b|\bpress\b|twitter|linkedin|review site`), Weight: 15},
			{Name: "compensation_request", Pattern: regexp.MustCompile(`refund|compensat|reimburse me`), Weight: 10},
			{Name: "cancellation_threat", Pattern: regexp.MustCompile(`cancel (my )?(policy|account|enrollment)`), Weight: 15},
		},
		Tags: []TagRule{
			{Tag: "claim-denial", Pattern: regexp.MustCompile(`denied|rejection|rejected`)},
			{Tag: "payment", Pattern: regexp.MustCompile(`payment|billing|invoice|\bpaid\b`)},
			{Tag: "mobile-app", Pattern: regexp.MustCompile(`\bapp\b|mobile|android|\bios\b`)},
			{Tag: "portal", Pattern: regexp.MustCompile(`portal|website|\bweb\b`)},
			{Tag: "dependent", Pattern: regexp.MustCompile(`spouse|child|parent|dependent`)},
			{Tag: "hospitalization", Pattern: regexp.MustCompile(`hospital|admitted|emergency room`)},
			{Tag: "documentation", Pattern: regexp.MustCompile(`document|upload|attachment|form\b`)},
		},
		MaxTags:         5,
		DefaultCategory: "general",
		DefaultPriority: domain.TicketPriorityMedium,
		FallbackResponseMinutes: map[domain.TicketPriority]int{
			domain.TicketPriorityCritical: 120,
			domain.TicketPriorityHigh:     480,
			domain.TicketPriorityMedium:   1440,
			domain.TicketPriorityLow:      2880,
		},
	}
}

func compile(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile(pattern))
	}
	return compiled
}
