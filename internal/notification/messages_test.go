package notification

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageFor(t *testing.T) {
	tests := []struct {
		event    Event
		wantType string
	}{
		{EventSubmitted, TypeApprovalPending},
		{EventStepAdvanced, TypeApprovalPending},
		{EventApproved, TypeApprovalCompleted},
		{EventRejected, TypeApprovalRejected},
		{EventCancelled, TypeApprovalCancelled},
	}
	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			title, message, notifType, err := MessageFor(tt.event, "LEAVE", "alice", "")
			require.NoError(t, err)
			require.NotEmpty(t, title)
			require.NotEmpty(t, message)
			require.Equal(t, tt.wantType, notifType)
		})
	}
}

func TestMessageFor_AppendsComment(t *testing.T) {
	_, message, _, err := MessageFor(EventRejected, "EXPENSE", "bob", "missing receipt")
	require.NoError(t, err)
	require.Contains(t, message, "missing receipt")
}

func TestMessageFor_UnknownEvent(t *testing.T) {
	_, _, _, err := MessageFor(Event("EXPLODED"), "LEAVE", "alice", "")
	require.Error(t, err)
}

func TestValidateParams(t *testing.T) {
	valid := Params{
		RecipientID: "alice",
		Type:        TypeApprovalPending,
		Title:       "t",
		Message:     "m",
	}
	require.NoError(t, validateParams(valid))

	missingRecipient := valid
	missingRecipient.RecipientID = ""
	require.Error(t, validateParams(missingRecipient))

	missingTitle := valid
	missingTitle.Title = ""
	require.Error(t, validateParams(missingTitle))

	badType := valid
	badType.Type = "SMOKE_SIGNAL"
	require.Error(t, validateParams(badType))
}
