package domain

import "time"

// EscalationConditionType enumerates rule predicates.
type EscalationConditionType string

const (
	ConditionPriorityAtLeast EscalationConditionType = "priority_at_least"
	ConditionRiskAbove       EscalationConditionType = "risk_above"
	ConditionSentimentIs     EscalationConditionType = "sentiment_is"
	ConditionCategoryIs      EscalationConditionType = "category_is"
)

// EscalationActionType enumerates rule actions.
type EscalationActionType string

const (
	ActionEscalate   EscalationActionType = "escalate"
	ActionAssignTeam EscalationActionType = "assign_team"
	ActionAddTag     EscalationActionType = "add_tag"
)

// EscalationRule is configuration consulted at ticket-creation time.
type EscalationRule struct {
	ID             string
	TenantID       string
	Name           string
	ConditionType  EscalationConditionType
	ConditionValue string
	ActionType     EscalationActionType
	ActionValue    string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// QueueAssignment routes new tickets to a team or assignee, keyed by
// feature and category. The most specific active row wins.
type QueueAssignment struct {
	ID           string
	TenantID     string
	FeatureID    *string
	Category     *string
	TeamName     string
	AssigneeID   *string
	AssigneeName string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
