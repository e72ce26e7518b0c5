package domain

import "testing"

func TestMessageStatusCanTransition(t *testing.T) {
	allowed := []struct{ from, to MessageStatus }{
		{MessageDraft, MessagePendingReview},
		{MessagePendingReview, MessageApproved},
		{MessagePendingReview, MessageCancelled},
		{MessageApproved, MessageScheduled},
		{MessageApproved, MessageCancelled},
		{MessageScheduled, MessageSent},
		{MessageScheduled, MessageCancelled},
		{MessageScheduled, MessageFailed},
		{MessageSent, MessageDelivered},
		{MessageSent, MessageBounced},
		{MessageSent, MessageComplained},
		{MessageSent, MessageReplied},
		{MessageDelivered, MessageOpened},
		{MessageOpened, MessageClicked},
		{MessageClicked, MessageReplied},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransition(tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct{ from, to MessageStatus }{
		{MessageDraft, MessageSent},
		{MessageSent, MessageCancelled},
		{MessageSent, MessageScheduled},
		{MessageBounced, MessageDelivered},
		{MessageComplained, MessageBounced},
		{MessageComplained, MessageReplied},
		{MessageReplied, MessageBounced},
		{MessageOpened, MessageDelivered},
		{MessageFailed, MessageCancelled},
	}
	for _, tc := range forbidden {
		if tc.from.CanTransition(tc.to) {
			t.Errorf("%s -> %s should be forbidden", tc.from, tc.to)
		}
	}
}

func TestSuppressionReasonOutranks(t *testing.T) {
	if !ReasonComplaint.Outranks(ReasonBounce) {
		t.Error("complaint should outrank bounce")
	}
	if ReasonBounce.Outranks(ReasonComplaint) {
		t.Error("bounce should not outrank complaint")
	}
	if !ReasonBounce.Outranks(ReasonBounce) {
		t.Error("equal severity should outrank for idempotent re-suppression")
	}
	if !ReasonManual.Outranks("") {
		t.Error("any known reason should outrank an unknown one")
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "jane.doe+tag@sub.example.com"}
	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false", e)
		}
	}
	invalid := []string{"", "plain", "a@b", "@example.com", "a b@example.com"}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true", e)
		}
	}
}
