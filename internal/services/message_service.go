package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messagesCollection = "messages"

func messagesCol() *mongo.Collection {
	return database.DB.Collection(messagesCollection)
}

// EnsureMessageIndexes configures indexes for the messages collection.
// Called on startup from main after Mongo has connected.
func EnsureMessageIndexes(ctx context.Context) error {
	col := messagesCol()

	indexes := []mongo.IndexModel{
		{
			// Supports ordered history loads and pagination.
			Keys: bson.D{
				{Key: "conversation_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_conversation_created"),
		},
		{
			// Supports unread counts and batch mark-read.
			Keys: bson.D{
				{Key: "conversation_id", Value: 1},
				{Key: "read", Value: 1},
				{Key: "sender_id", Value: 1},
			},
			Options: options.Index().SetName("idx_conversation_read_sender"),
		},
	}

	for _, m := range indexes {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// SendMessage runs the full append path for a message: participant and
// content validation, the send-time block re-check, the insert, the
// last_message_at bump and the realtime fan-out.
//
// The block check runs here even though the conversation already exists,
// because a block may have been added after the conversation was created.
func SendMessage(ctx context.Context, convID, sender uuid.UUID, body string) (*models.ChatMessage, error) {
	conv, err := GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}

	msg, err := models.NewChatMessage(conv, sender, body)
	if err != nil {
		return nil, err
	}

	blocked, err := IsBlockedEitherDirection(conv.Participant1, conv.Participant2)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlockedPair
	}

	res, err := messagesCol().InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to persist message: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}

	// Keep inbox ordering correct. A failure here is logged, not surfaced:
	// the message itself is already durable.
	if err := TouchConversation(ctx, convID, msg.CreatedAt); err != nil {
		log.Printf("chat: failed to bump last_message_at for %s: %v", convID, err)
	}

	PushMessageToRecentCache(*msg)

	evt := RealtimeEvent{
		Type:           EventTypeMessage,
		ConversationID: msg.ConversationID,
		Message:        msg,
		Timestamp:      msg.CreatedAt,
	}
	if err := PublishEvent(ctx, ConversationTopic(msg.ConversationID), evt); err != nil {
		log.Printf("realtime: failed to publish message event: %v", err)
	}
	notifyInboxes(ctx, conv)

	// Notify the counterpart out-of-band as well, for when their inbox is closed.
	recipient := conv.Counterpart(sender)
	senderName, _ := GetUsernameByID(sender.String())
	if err := CreateNotification(recipient, models.NotificationNewMessage,
		"New message", fmt.Sprintf("%s sent you a message", senderName),
		"/messages/"+msg.ConversationID,
	); err != nil {
		log.Printf("chat: failed to create message notification: %v", err)
	}

	return msg, nil
}

// ListMessages returns one page of a conversation's history in creation
// order (oldest first). Fetches newest-first from Mongo then reverses, so
// the page always holds the most recent messages when before is nil.
func ListMessages(ctx context.Context, convID string, before *time.Time, limit int64) ([]models.ChatMessage, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	filter := bson.M{"conversation_id": convID}
	if before != nil {
		filter["created_at"] = bson.M{"$lt": before.UTC()}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := messagesCol().Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	var msgs []models.ChatMessage
	for cur.Next(ctx) {
		var m models.ChatMessage
		if err := cur.Decode(&m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	if err := cur.Err(); err != nil {
		return nil, false, err
	}

	hasMore := int64(len(msgs)) > limit
	if hasMore {
		msgs = msgs[:len(msgs)-1]
	}

	// Reverse to oldest-first for the UI.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return msgs, hasMore, nil
}

// MarkMessagesRead flips read=true on every message in the conversation
// whose sender is not the reader and that is still unread. Idempotent:
// a second call matches nothing and changes nothing.
func MarkMessagesRead(ctx context.Context, convID string, reader uuid.UUID) (int64, error) {
	res, err := messagesCol().UpdateMany(ctx, bson.M{
		"conversation_id": convID,
		"sender_id":       bson.M{"$ne": reader.String()},
		"read":            false,
	}, bson.M{
		"$set": bson.M{"read": true},
	})
	if err != nil {
		return 0, err
	}
	if res.ModifiedCount > 0 {
		// Cached copies now carry stale read flags.
		InvalidateRecentCache(convID)
	}
	return res.ModifiedCount, nil
}

// UnreadCountFromSender counts unread messages in the conversation authored
// by the given sender.
func UnreadCountFromSender(ctx context.Context, convID string, sender uuid.UUID) (int64, error) {
	return messagesCol().CountDocuments(ctx, bson.M{
		"conversation_id": convID,
		"sender_id":       sender.String(),
		"read":            false,
	})
}

// LatestMessage returns the most recent message of a conversation, or nil
// when the thread has no messages yet.
func LatestMessage(ctx context.Context, convID string) (*models.ChatMessage, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var m models.ChatMessage
	err := messagesCol().FindOne(ctx, bson.M{"conversation_id": convID}, opts).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
