package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/benefits-desk/internal/service"
)

const dequeueTimeout = 5 * time.Second

// SummaryWorker drains the pending-summary queue and stores generated
// summaries. Failures are logged and the ticket is skipped; tickets are
// fully usable without a summary.
type SummaryWorker struct {
	summaries *service.SummaryService
	logger    *zap.Logger
}

// NewSummaryWorker constructs the worker.
func NewSummaryWorker(summaries *service.SummaryService, logger *zap.Logger) *SummaryWorker {
	return &SummaryWorker{summaries: summaries, logger: logger}
}

// Run consumes the queue until the context is cancelled.
func (w *SummaryWorker) Run(ctx context.Context) {
	w.logger.Info("summary worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("summary worker stopped")
			return
		default:
		}

		ticketID, err := w.summaries.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("summary worker stopped")
				return
			}
			w.logger.Warn("summary dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if ticketID == "" {
			continue
		}

		if err := w.summaries.GenerateAndStore(ctx, ticketID); err != nil {
			w.logger.Warn("summary generation failed",
				zap.String("ticket_id", ticketID),
				zap.Error(err))
		}
	}
}

// StartNotificationWorker registers notification handlers on the dispatcher.
func StartNotificationWorker(notifications *service.NotificationService) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
}
