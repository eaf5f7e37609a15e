package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/models"
)

// RealtimeEvent is the payload broadcast over Redis and WebSocket.
type RealtimeEvent struct {
	Type           string              `json:"type"`
	ConversationID string              `json:"conversation_id,omitempty"`
	Message        *models.ChatMessage `json:"message,omitempty"`
	Error          string              `json:"error,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
}

const (
	EventTypeMessage      = "message"      // new message in a conversation
	EventTypeMessageAck   = "message_ack"  // sender-side acknowledgement
	EventTypeConversation = "conversation" // a conversation touching the user changed
	EventTypeError        = "error"

	realtimeChannelPrefix = "realtime:"
	subscriberBuffer      = 16
)

// ConversationTopic is the per-open-chat-view subscription key: exactly the
// new-message feed of one conversation.
func ConversationTopic(convID string) string {
	return "conv:" + convID
}

// InboxTopic is the per-inbox-view subscription key: any conversation
// touching the user as either participant.
func InboxTopic(userID string) string {
	return "inbox:" + userID
}

// topicHub fans events out to local subscriber channels by exact topic.
// The Redis subscriber below feeds it, so every instance of the backend
// sees every event regardless of which instance published it.
type topicHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan RealtimeEvent]struct{}
}

func newTopicHub() *topicHub {
	return &topicHub{subs: make(map[string]map[chan RealtimeEvent]struct{})}
}

// Subscribe registers interest in a topic. The returned cancel func must be
// called when the view closes or switches topics; it is safe to call twice.
func (h *topicHub) Subscribe(topic string) (<-chan RealtimeEvent, func()) {
	ch := make(chan RealtimeEvent, subscriberBuffer)

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[chan RealtimeEvent]struct{})
	}
	h.subs[topic][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[topic]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, topic)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish delivers an event to every local subscriber of the topic.
// Slow consumers are skipped rather than blocking the fan-out; the chat UI
// reloads history on reconnect so a dropped push is not data loss.
func (h *topicHub) publish(topic string, evt RealtimeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[topic] {
		// Each subscriber gets its own Message copy: viewers flip the read
		// flag on delivery, and a shared pointer would race with another
		// subscriber's concurrent WriteJSON of the same event.
		e := evt
		if evt.Message != nil {
			m := *evt.Message
			e.Message = &m
		}
		select {
		case ch <- e:
		default:
		}
	}
}

var (
	hub             = newTopicHub()
	realtimeStarted sync.Once
)

// SubscribeTopic attaches a local subscriber to the given topic.
func SubscribeTopic(topic string) (<-chan RealtimeEvent, func()) {
	return hub.Subscribe(topic)
}

// PublishEvent publishes an event to Redis; the pattern subscriber on each
// instance fans it out to local WebSocket connections.
func PublishEvent(ctx context.Context, topic string, evt RealtimeEvent) error {
	if database.RedisClient == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, realtimeChannelPrefix+topic, data).Err()
}

// StartRealtimeSubscriber ensures a single shared Redis listener per instance.
func StartRealtimeSubscriber(ctx context.Context) {
	realtimeStarted.Do(func() {
		go runRealtimeSubscriber(ctx)
	})
}

func runRealtimeSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; realtime subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, realtimeChannelPrefix+"*")
			defer pubsub.Close()

			log.Println("✅ Realtime Redis subscriber started (pattern: realtime:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var evt RealtimeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					log.Printf("failed to unmarshal realtime event: %v", err)
					continue
				}

				hub.publish(strings.TrimPrefix(msg.Channel, realtimeChannelPrefix), evt)
			}
		}()
	}
}
