// Package notification implements the in-app inbox.
//
// Inbox rows are written synchronously by the decision notice worker;
// delivery to recipients is best-effort and never blocks the approval
// write path.
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"signoff.io/signoff/internal/pkg/logger"
)

// Notification type constants matching the notifications.type column.
const (
	TypeApprovalPending   = "APPROVAL_PENDING"
	TypeApprovalCompleted = "APPROVAL_COMPLETED"
	TypeApprovalRejected  = "APPROVAL_REJECTED"
	TypeApprovalCancelled = "APPROVAL_CANCELLED"
)

// Params holds the required fields for creating a notification.
type Params struct {
	RecipientID  string // account id of the recipient
	Type         string // one of Type* constants above
	Title        string // human-readable title
	Message      string // body text
	ResourceType string // e.g. "approval_request"
	ResourceID   string // id of the related resource for navigation
}

// Sender defines the interface for sending notifications. The inbox is
// the only implementation; push channels (email, webhook) would plug in
// here.
type Sender interface {
	// Send creates a notification for a single recipient.
	Send(ctx context.Context, params Params) error

	// SendToMany creates notifications for multiple recipients.
	// Best-effort: logs errors but does not abort on individual failures.
	SendToMany(ctx context.Context, recipientIDs []string, params Params) error
}

func validateParams(p Params) error {
	if p.RecipientID == "" {
		return fmt.Errorf("recipient_id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Message == "" {
		return fmt.Errorf("message is required")
	}
	switch p.Type {
	case TypeApprovalPending, TypeApprovalCompleted, TypeApprovalRejected, TypeApprovalCancelled:
		return nil
	default:
		return fmt.Errorf("unknown notification type: %s", p.Type)
	}
}

func logDeliveryFailure(recipientID string, params Params, err error) {
	logger.Error("notification delivery failed",
		zap.String("recipient", recipientID),
		zap.String("type", params.Type),
		zap.Error(err),
	)
}
