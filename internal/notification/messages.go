package notification

import "fmt"

// Event names the lifecycle moments that produce an inbox message.
type Event string

// Decision events carried by the notice job.
const (
	EventSubmitted    Event = "SUBMITTED"
	EventStepAdvanced Event = "STEP_ADVANCED"
	EventApproved     Event = "APPROVED"
	EventRejected     Event = "REJECTED"
	EventCancelled    Event = "CANCELLED"
)

// MessageFor builds the inbox title, body and notification type for a
// lifecycle event. requestType is LEAVE or EXPENSE; actor is the
// account that caused the event.
func MessageFor(event Event, requestType, actor, comment string) (title, message, notifType string, err error) {
	switch event {
	case EventSubmitted:
		title = fmt.Sprintf("%s request awaiting your approval", requestType)
		message = fmt.Sprintf("%s submitted a %s request that needs your decision.", actor, requestType)
		notifType = TypeApprovalPending
	case EventStepAdvanced:
		title = fmt.Sprintf("%s request awaiting your approval", requestType)
		message = fmt.Sprintf("%s approved the previous step; the request now needs your decision.", actor)
		notifType = TypeApprovalPending
	case EventApproved:
		title = fmt.Sprintf("%s request approved", requestType)
		message = fmt.Sprintf("Your %s request was approved by %s.", requestType, actor)
		notifType = TypeApprovalCompleted
	case EventRejected:
		title = fmt.Sprintf("%s request rejected", requestType)
		message = fmt.Sprintf("Your %s request was rejected by %s.", requestType, actor)
		notifType = TypeApprovalRejected
	case EventCancelled:
		title = fmt.Sprintf("%s request cancelled", requestType)
		message = fmt.Sprintf("%s cancelled their %s request; no further action is needed.", actor, requestType)
		notifType = TypeApprovalCancelled
	default:
		return "", "", "", fmt.Errorf("unknown decision event: %s", event)
	}

	if comment != "" {
		message = fmt.Sprintf("%s Comment: %s", message, comment)
	}
	return title, message, notifType, nil
}
