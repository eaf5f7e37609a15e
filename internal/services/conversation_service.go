package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/models"
)

var (
	// ErrBlockedPair is surfaced to the end user as an explicit "you cannot
	// contact this user" message, never retried.
	ErrBlockedPair = errors.New("chat: messaging is blocked between these users")

	ErrConversationNotFound = errors.New("chat: conversation not found")

	// ErrConversationCreate means the insert hit a uniqueness conflict and the
	// recovery re-query also came back empty.
	ErrConversationCreate = errors.New("chat: failed to create conversation")
)

const pqUniqueViolation = "23505"

func scanConversation(row *sql.Row) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.ID, &c.CreatedAt, &c.LastMessageAt, &c.Participant1, &c.Participant2)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetConversation loads a conversation by ID.
func GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	row := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, created_at, last_message_at, participant_1, participant_2
		FROM conversations WHERE id = $1
	`, id)
	return scanConversation(row)
}

// findConversationByPair looks up the thread for an unordered pair. Storage
// is order-sensitive, so both orientations are checked.
func findConversationByPair(ctx context.Context, userA, userB uuid.UUID) (*models.Conversation, error) {
	row := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, created_at, last_message_at, participant_1, participant_2
		FROM conversations
		WHERE (participant_1 = $1 AND participant_2 = $2)
		   OR (participant_1 = $2 AND participant_2 = $1)
	`, userA, userB)
	return scanConversation(row)
}

// GetOrCreateConversation returns the single conversation for the pair,
// creating it lazily on first contact. The second return value is true when
// a new row was created.
//
// Under concurrent calls from both participants exactly one row is ever
// materialized: the unique pair index makes the loser's insert fail with a
// uniqueness conflict, and the loser then re-queries and returns the
// winner's row.
func GetOrCreateConversation(ctx context.Context, userA, userB uuid.UUID) (*models.Conversation, bool, error) {
	if err := models.ValidateConversationPair(userA, userB); err != nil {
		return nil, false, err
	}

	blocked, err := IsBlockedEitherDirection(userA, userB)
	if err != nil {
		return nil, false, err
	}
	if blocked {
		return nil, false, ErrBlockedPair
	}

	conv, err := findConversationByPair(ctx, userA, userB)
	if err == nil {
		return conv, false, nil
	}
	if err != ErrConversationNotFound {
		return nil, false, err
	}

	id := uuid.New()
	now := time.Now().UTC()
	_, err = database.PostgresDB.ExecContext(ctx, `
		INSERT INTO conversations (id, created_at, last_message_at, participant_1, participant_2)
		VALUES ($1, $2, $2, $3, $4)
	`, id, now, userA, userB)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			// Lost the race; the other participant created the row first,
			// possibly in the opposite order.
			conv, lookupErr := findConversationByPair(ctx, userA, userB)
			if lookupErr != nil {
				return nil, false, fmt.Errorf("%w: %v", ErrConversationCreate, lookupErr)
			}
			return conv, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrConversationCreate, err)
	}

	conv = &models.Conversation{
		ID:            id,
		CreatedAt:     now,
		LastMessageAt: now,
		Participant1:  userA,
		Participant2:  userB,
	}

	// Let both inbox views know a new thread exists.
	notifyInboxes(ctx, conv)

	return conv, true, nil
}

// TouchConversation bumps last_message_at so inbox ordering stays correct.
func TouchConversation(ctx context.Context, id uuid.UUID, ts time.Time) error {
	_, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE conversations SET last_message_at = $2 WHERE id = $1
	`, id, ts)
	return err
}

// ListConversationsForUser returns the user's inbox: every conversation
// touching the user as either participant, most recently active first, each
// enriched with the counterpart's profile, the latest message and the count
// of unread messages from the counterpart.
func ListConversationsForUser(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT id, created_at, last_message_at, participant_1, participant_2
		FROM conversations
		WHERE participant_1 = $1 OR participant_2 = $1
		ORDER BY last_message_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.LastMessageAt, &c.Participant1, &c.Participant2); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		counterpartID := c.Counterpart(userID)

		counterpart, err := GetProfileSummary(counterpartID)
		if err != nil {
			// Counterpart deactivated; skip the thread rather than fail the inbox.
			if err == ErrUserNotFound {
				continue
			}
			return nil, err
		}

		last, err := LatestMessage(ctx, c.ID.String())
		if err != nil {
			log.Printf("inbox: failed to load latest message for conversation %s: %v", c.ID, err)
		}

		unread, err := UnreadCountFromSender(ctx, c.ID.String(), counterpartID)
		if err != nil {
			log.Printf("inbox: failed to count unread for conversation %s: %v", c.ID, err)
		}

		summaries = append(summaries, models.ConversationSummary{
			Conversation: c,
			Counterpart:  *counterpart,
			LastMessage:  last,
			UnreadCount:  unread,
		})
	}
	return summaries, nil
}

// notifyInboxes publishes a conversation-touched event to both participants'
// inbox topics. Best-effort; inbox views recompute their list on receipt.
func notifyInboxes(ctx context.Context, conv *models.Conversation) {
	evt := RealtimeEvent{
		Type:           EventTypeConversation,
		ConversationID: conv.ID.String(),
		Timestamp:      time.Now().UTC(),
	}
	for _, p := range []uuid.UUID{conv.Participant1, conv.Participant2} {
		if err := PublishEvent(ctx, InboxTopic(p.String()), evt); err != nil {
			log.Printf("realtime: failed to publish inbox event for %s: %v", p, err)
		}
	}
}
