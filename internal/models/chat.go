package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat-level validation errors. These are rejected before any remote call.
var (
	ErrSelfConversation = errors.New("chat: cannot open a conversation with yourself")
	ErrMissingUser      = errors.New("chat: both participants are required")
	ErrEmptyMessage     = errors.New("chat: message body is empty")
	ErrNotParticipant   = errors.New("chat: sender is not a participant in the conversation")
)

// Conversation maps an unordered pair of users to a single thread.
// Stored order-sensitively in PostgreSQL; a unique index on
// (LEAST(p1,p2), GREATEST(p1,p2)) enforces one row per pair.
type Conversation struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
	Participant1  uuid.UUID `json:"participant_1"`
	Participant2  uuid.UUID `json:"participant_2"`
}

// HasParticipant tells whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.Participant1 == userID || c.Participant2 == userID
}

// Counterpart returns the other participant from userID's point of view.
func (c *Conversation) Counterpart(userID uuid.UUID) uuid.UUID {
	if c.Participant1 == userID {
		return c.Participant2
	}
	return c.Participant1
}

// ValidateConversationPair rejects self-pairs and missing participants
// before any storage round-trip is made.
func ValidateConversationPair(userA, userB uuid.UUID) error {
	if userA == uuid.Nil || userB == uuid.Nil {
		return ErrMissingUser
	}
	if userA == userB {
		return ErrSelfConversation
	}
	return nil
}

// NormalizePair returns the two IDs in canonical (low, high) order, matching
// the LEAST/GREATEST expression the unique index is built on.
func NormalizePair(userA, userB uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(userA.String(), userB.String()) <= 0 {
		return userA, userB
	}
	return userB, userA
}

// ChatMessage is stored in MongoDB, one document per message. Messages are
// immutable once created; only the read flag transitions, false→true.
type ChatMessage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"`
	SenderID       string             `bson:"sender_id" json:"sender_id"`
	Body           string             `bson:"body" json:"body"`
	Read           bool               `bson:"read" json:"read"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// NewChatMessage validates and builds a message ready to persist.
// The body is trimmed; an empty result is rejected.
func NewChatMessage(conv *Conversation, sender uuid.UUID, body string) (*ChatMessage, error) {
	if !conv.HasParticipant(sender) {
		return nil, ErrNotParticipant
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	return &ChatMessage{
		ConversationID: conv.ID.String(),
		SenderID:       sender.String(),
		Body:           body,
		Read:           false,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// ConversationSummary is a conversation enriched for the inbox view:
// counterpart profile, most recent message and unread-from-counterpart count.
type ConversationSummary struct {
	Conversation Conversation   `json:"conversation"`
	Counterpart  ProfileSummary `json:"counterpart"`
	LastMessage  *ChatMessage   `json:"last_message,omitempty"`
	UnreadCount  int64          `json:"unread_count"`
}
