package service

import (
	"context"

	"github.com/spec-kit/benefits-desk/internal/domain"
	"github.com/spec-kit/benefits-desk/internal/repository"
	apperrors "github.com/spec-kit/benefits-desk/pkg/util"
)

// AssignmentService resolves initial ticket routing from queue
// configuration. Rows are scored by specificity: a feature+category row
// beats a feature-only row beats a category-only row beats the tenant
// default.
type AssignmentService struct {
	queues repository.QueueAssignmentRepository
}

// NewAssignmentService creates the service.
func NewAssignmentService(queues repository.QueueAssignmentRepository) *AssignmentService {
	return &AssignmentService{queues: queues}
}

// ResolveQueue picks the routing row for a new ticket. Returns nil when no
// active row matches; the ticket then starts unassigned.
func (s *AssignmentService) ResolveQueue(ctx context.Context, tenantID string, featureID *string, category string) (*domain.QueueAssignment, error) {
	if s.queues == nil {
		return nil, nil
	}
	rows, err := s.queues.ListActive(ctx, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var best *domain.QueueAssignment
	bestScore := -1
	for i := range rows {
		row := &rows[i]
		score := 0
		if row.FeatureID != nil {
			if featureID == nil || *row.FeatureID != *featureID {
				continue
			}
			score += 2
		}
		if row.Category != nil {
			if *row.Category != category {
				continue
			}
			score++
		}
		if score > bestScore {
			bestScore = score
			best = row
		}
	}
	return best, nil
}
