package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestValidateConversationPair(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	if err := ValidateConversationPair(a, b); err != nil {
		t.Errorf("ValidateConversationPair(a, b) = %v, want nil", err)
	}
	if err := ValidateConversationPair(a, a); err != ErrSelfConversation {
		t.Errorf("ValidateConversationPair(a, a) = %v, want ErrSelfConversation", err)
	}
	if err := ValidateConversationPair(uuid.Nil, b); err != ErrMissingUser {
		t.Errorf("ValidateConversationPair(nil, b) = %v, want ErrMissingUser", err)
	}
	if err := ValidateConversationPair(a, uuid.Nil); err != ErrMissingUser {
		t.Errorf("ValidateConversationPair(a, nil) = %v, want ErrMissingUser", err)
	}
}

func TestNormalizePair_Symmetric(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	lo1, hi1 := NormalizePair(a, b)
	lo2, hi2 := NormalizePair(b, a)

	if lo1 != lo2 || hi1 != hi2 {
		t.Errorf("NormalizePair not symmetric: (%v,%v) vs (%v,%v)", lo1, hi1, lo2, hi2)
	}
	if lo1.String() > hi1.String() {
		t.Errorf("NormalizePair returned (%v,%v), want low before high", lo1, hi1)
	}
}

func TestConversation_Counterpart(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	conv := &Conversation{ID: uuid.New(), Participant1: a, Participant2: b}

	if got := conv.Counterpart(a); got != b {
		t.Errorf("Counterpart(a) = %v, want %v", got, b)
	}
	if got := conv.Counterpart(b); got != a {
		t.Errorf("Counterpart(b) = %v, want %v", got, a)
	}
	if !conv.HasParticipant(a) || !conv.HasParticipant(b) {
		t.Error("HasParticipant false for actual participants")
	}
	if conv.HasParticipant(uuid.New()) {
		t.Error("HasParticipant true for stranger")
	}
}

func TestNewChatMessage(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	conv := &Conversation{ID: uuid.New(), Participant1: a, Participant2: b}

	msg, err := NewChatMessage(conv, a, "  Merhaba  ")
	if err != nil {
		t.Fatalf("NewChatMessage() error = %v", err)
	}
	if msg.Body != "Merhaba" {
		t.Errorf("NewChatMessage() body = %q, want trimmed %q", msg.Body, "Merhaba")
	}
	if msg.Read {
		t.Error("NewChatMessage() read = true, want false")
	}
	if msg.ConversationID != conv.ID.String() || msg.SenderID != a.String() {
		t.Error("NewChatMessage() identity fields wrong")
	}
	if time.Since(msg.CreatedAt) > time.Minute {
		t.Error("NewChatMessage() created_at not set to now")
	}

	if _, err := NewChatMessage(conv, a, "   "); err != ErrEmptyMessage {
		t.Errorf("NewChatMessage(blank) = %v, want ErrEmptyMessage", err)
	}
	if _, err := NewChatMessage(conv, uuid.New(), "hi"); err != ErrNotParticipant {
		t.Errorf("NewChatMessage(stranger) = %v, want ErrNotParticipant", err)
	}
}

func TestValidModerationTransition(t *testing.T) {
	cases := []struct {
		from, to ModerationStatus
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
	}
	for _, c := range cases {
		if got := ValidModerationTransition(c.from, c.to); got != c.want {
			t.Errorf("ValidModerationTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
