// Package jobs defines River Queue job types for async processing.
//
// Decision notices are enqueued with InsertTx inside the same
// transaction as the approval write, so a committed decision always has
// its notice job and a rolled-back one never does.
package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"signoff.io/signoff/internal/notification"
	"signoff.io/signoff/internal/pkg/logger"
)

// DecisionNoticeArgs carries one approval lifecycle event to the inbox.
type DecisionNoticeArgs struct {
	RequestID    string             `json:"request_id"`
	RequestType  string             `json:"request_type"`
	Event        notification.Event `json:"event"`
	Actor        string             `json:"actor"`
	Comment      string             `json:"comment,omitempty"`
	RecipientIDs []string           `json:"recipient_ids"`
}

// Kind returns the job kind identifier for decision notices.
func (DecisionNoticeArgs) Kind() string { return "approval_decision_notice" }

// InsertOpts bounds retries; a notice that fails three times is dropped
// rather than retried forever.
func (DecisionNoticeArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 3,
	}
}

// DecisionNoticeWorker delivers decision notices to recipient inboxes.
type DecisionNoticeWorker struct {
	river.WorkerDefaults[DecisionNoticeArgs]
	sender notification.Sender
}

// NewDecisionNoticeWorker creates a decision notice worker.
func NewDecisionNoticeWorker(sender notification.Sender) *DecisionNoticeWorker {
	return &DecisionNoticeWorker{sender: sender}
}

// Work writes one inbox row per recipient.
func (w *DecisionNoticeWorker) Work(ctx context.Context, job *river.Job[DecisionNoticeArgs]) error {
	if w == nil || w.sender == nil {
		return fmt.Errorf("decision notice worker is not initialized")
	}

	args := job.Args
	if len(args.RecipientIDs) == 0 {
		logger.Debug("decision notice has no recipients",
			zap.String("request_id", args.RequestID),
			zap.String("event", string(args.Event)),
		)
		return nil
	}

	title, message, notifType, err := notification.MessageFor(args.Event, args.RequestType, args.Actor, args.Comment)
	if err != nil {
		return fmt.Errorf("build decision notice for request %s: %w", args.RequestID, err)
	}

	params := notification.Params{
		Type:         notifType,
		Title:        title,
		Message:      message,
		ResourceType: "approval_request",
		ResourceID:   args.RequestID,
	}
	if err := w.sender.SendToMany(ctx, args.RecipientIDs, params); err != nil {
		return fmt.Errorf("deliver decision notice for request %s: %w", args.RequestID, err)
	}

	logger.Info("decision notice delivered",
		zap.String("request_id", args.RequestID),
		zap.String("event", string(args.Event)),
		zap.Int("recipients", len(args.RecipientIDs)),
	)
	return nil
}
