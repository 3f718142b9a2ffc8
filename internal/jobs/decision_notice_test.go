package jobs

import (
	"context"
	"strings"
	"testing"

	"github.com/riverqueue/river"

	"signoff.io/signoff/internal/notification"
)

type fakeSender struct {
	sent   []notification.Params
	toMany [][]string
	err    error
}

func (f *fakeSender) Send(_ context.Context, params notification.Params) error {
	f.sent = append(f.sent, params)
	return f.err
}

func (f *fakeSender) SendToMany(_ context.Context, recipientIDs []string, params notification.Params) error {
	f.toMany = append(f.toMany, recipientIDs)
	f.sent = append(f.sent, params)
	return f.err
}

func TestDecisionNoticeArgsKind(t *testing.T) {
	t.Parallel()

	if got := (DecisionNoticeArgs{}).Kind(); got != "approval_decision_notice" {
		t.Fatalf("Kind() = %q, want %q", got, "approval_decision_notice")
	}
}

func TestDecisionNoticeWorkerWork(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	w := NewDecisionNoticeWorker(sender)

	job := &river.Job[DecisionNoticeArgs]{
		Args: DecisionNoticeArgs{
			RequestID:    "req-1",
			RequestType:  "LEAVE",
			Event:        notification.EventRejected,
			Actor:        "boss",
			Comment:      "too long",
			RecipientIDs: []string{"alice"},
		},
	}
	if err := w.Work(context.Background(), job); err != nil {
		t.Fatalf("Work() error = %v", err)
	}

	if len(sender.toMany) != 1 || len(sender.toMany[0]) != 1 || sender.toMany[0][0] != "alice" {
		t.Fatalf("recipients = %v, want [alice]", sender.toMany)
	}
	got := sender.sent[0]
	if got.Type != notification.TypeApprovalRejected {
		t.Fatalf("Type = %q, want %q", got.Type, notification.TypeApprovalRejected)
	}
	if got.ResourceID != "req-1" || got.ResourceType != "approval_request" {
		t.Fatalf("resource = %s/%s, want approval_request/req-1", got.ResourceType, got.ResourceID)
	}
	if !strings.Contains(got.Message, "too long") {
		t.Fatalf("Message = %q, want the comment included", got.Message)
	}
}

func TestDecisionNoticeWorkerWork_NoRecipients(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	w := NewDecisionNoticeWorker(sender)

	job := &river.Job[DecisionNoticeArgs]{
		Args: DecisionNoticeArgs{
			RequestID:   "req-2",
			RequestType: "EXPENSE",
			Event:       notification.EventApproved,
			Actor:       "boss",
		},
	}
	if err := w.Work(context.Background(), job); err != nil {
		t.Fatalf("Work() error = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("sent = %d notifications, want 0", len(sender.sent))
	}
}

func TestDecisionNoticeWorkerWork_UnknownEvent(t *testing.T) {
	t.Parallel()

	w := NewDecisionNoticeWorker(&fakeSender{})
	job := &river.Job[DecisionNoticeArgs]{
		Args: DecisionNoticeArgs{
			RequestID:    "req-3",
			RequestType:  "LEAVE",
			Event:        notification.Event("EXPLODED"),
			RecipientIDs: []string{"alice"},
		},
	}
	if err := w.Work(context.Background(), job); err == nil {
		t.Fatal("Work() with unknown event should return an error")
	}
}

func TestDecisionNoticeWorkerWork_Uninitialized(t *testing.T) {
	t.Parallel()

	var w *DecisionNoticeWorker
	err := w.Work(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
	}
}
