package triage

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

const (
	duplicateLookback     = 7 * 24 * time.Hour
	duplicateMinWordLen   = 4
	duplicateRatioCutoff  = 0.5
	predictionHistorySize = 50
)

// TicketSource supplies ticket history for duplicate detection and
// response-time prediction.
type TicketSource interface {
	ListOpenByEmployee(ctx context.Context, tenantID, employeeID string, since time.Time) ([]domain.Ticket, error)
	ListRecentResolved(ctx context.Context, tenantID, category string, priority domain.TicketPriority, limit int) ([]domain.Ticket, error)
}

// Engine is the deterministic rule-based classifier. Classification is a
// pure function of the input text: no external calls, no randomness.
type Engine struct {
	rules   *Rules
	tickets TicketSource
}

// NewEngine constructs the engine around a shared rule set.
func NewEngine(rules *Rules, tickets TicketSource) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{rules: rules, tickets: tickets}
}

// Result is the outcome of classifying a ticket's text.
type Result struct {
	Category  string
	Priority  domain.TicketPriority
	Sentiment domain.Sentiment
	RiskScore int
	Tags      []string
}

// Classify derives category, priority, sentiment, risk score, and tags
// from the lower-cased concatenation of title and description.
func (e *Engine) Classify(title, description string) Result {
	text := strings.ToLower(strings.TrimSpace(title + " " + description))

	category := e.detectCategory(text)
	priority := e.detectPriority(text)
	sentiment := e.detectSentiment(text)

	return Result{
		Category:  category,
		Priority:  priority,
		Sentiment: sentiment,
		RiskScore: e.riskScore(text, priority, sentiment),
		Tags:      e.extractTags(text, category),
	}
}

func (e *Engine) detectCategory(text string) string {
	for _, rule := range e.rules.Categories {
		for _, pattern := range rule.Patterns {
			if pattern.MatchString(text) {
				return rule.Category
			}
		}
	}
	return e.rules.DefaultCategory
}

func (e *Engine) detectPriority(text string) domain.TicketPriority {
	for _, rule := range e.rules.Priorities {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				return rule.Priority
			}
		}
	}
	return e.rules.DefaultPriority
}

func (e *Engine) detectSentiment(text string) domain.Sentiment {
	for _, rule := range e.rules.Sentiments {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				return rule.Sentiment
			}
		}
	}
	return domain.SentimentNeutral
}

func (e *Engine) riskScore(text string, priority domain.TicketPriority, sentiment domain.Sentiment) int {
	score := e.rules.PriorityBase[priority] + e.rules.SentimentDelta[sentiment]
	for _, indicator := range e.rules.RiskIndicators {
		if indicator.Pattern.MatchString(text) {
			score += indicator.Weight
		}
	}
	return ClampRisk(score)
}

func (e *Engine) extractTags(text, category string) []string {
	tags := []string{category}
	for _, rule := range e.rules.Tags {
		if len(tags) >= e.rules.MaxTags {
			break
		}
		if rule.Tag == category {
			continue
		}
		if rule.Pattern.MatchString(text) {
			tags = append(tags, rule.Tag)
		}
	}
	return tags
}

// Sentiment labels a free-text fragment, used for comment bodies.
func (e *Engine) Sentiment(text string) domain.Sentiment {
	return e.detectSentiment(strings.ToLower(strings.TrimSpace(text)))
}

// ClampRisk bounds a risk score to [0,100].
func ClampRisk(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// FindDuplicates flags open tickets from the same employee over the last
// seven days whose titles overlap the candidate title: the ratio of shared
// significant words to the larger word set must exceed 0.5.
func (e *Engine) FindDuplicates(ctx context.Context, tenantID, employeeID, title string) ([]string, error) {
	if e.tickets == nil || employeeID == "" {
		return nil, nil
	}
	since := time.Now().Add(-duplicateLookback)
	candidates, err := e.tickets.ListOpenByEmployee(ctx, tenantID, employeeID, since)
	if err != nil {
		return nil, err
	}

	words := titleWords(title)
	var duplicates []string
	for i := range candidates {
		other := titleWords(candidates[i].Title)
		if titleOverlap(words, other) > duplicateRatioCutoff {
			duplicates = append(duplicates, candidates[i].ID)
		}
	}
	return duplicates, nil
}

// PredictResponseMinutes returns the median historical resolution time for
// the tenant/category/priority, falling back to fixed per-priority defaults
// when there is no history.
func (e *Engine) PredictResponseMinutes(ctx context.Context, tenantID, category string, priority domain.TicketPriority) (int, error) {
	fallback := e.rules.FallbackResponseMinutes[priority]
	if fallback == 0 {
		fallback = e.rules.FallbackResponseMinutes[e.rules.DefaultPriority]
	}
	if e.tickets == nil {
		return fallback, nil
	}

	history, err := e.tickets.ListRecentResolved(ctx, tenantID, category, priority, predictionHistorySize)
	if err != nil {
		return 0, err
	}

	var durations []int
	for i := range history {
		if history[i].ResolvedAt == nil {
			continue
		}
		minutes := int(history[i].ResolvedAt.Sub(history[i].CreatedAt).Minutes())
		if minutes >= 0 {
			durations = append(durations, minutes)
		}
	}
	if len(durations) == 0 {
		return fallback, nil
	}

	sort.Ints(durations)
	mid := len(durations) / 2
	if len(durations)%2 == 0 {
		return (durations[mid-1] + durations[mid]) / 2, nil
	}
	return durations[mid], nil
}

func titleWords(title string) map[string]struct{} {
	words := map[string]struct{}{}
	for _, word := range strings.Fields(strings.ToLower(title)) {
		word = strings.Trim(word, ".,!?:;\"'()[]")
		if len(word) >= duplicateMinWordLen {
			words[word] = struct{}{}
		}
	}
	return words
}

func titleOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for word := range a {
		if _, ok := b[word]; ok {
			shared++
		}
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(shared) / float64(larger)
}
