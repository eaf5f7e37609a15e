package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/worklane/worklane-backend/internal/models"
	"github.com/worklane/worklane-backend/internal/services"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer on the HTTP side.
		return true
	},
}

// ChatClientMessage represents frames coming from the frontend over WebSocket.
type ChatClientMessage struct {
	Type           string `json:"type"` // "subscribe", "message", "read", "ping"
	ConversationID string `json:"conversation_id,omitempty"`
	Body           string `json:"body,omitempty"`
}

// wsAuth authenticates a WebSocket request via Bearer header or ?token=
// (browser WebSocket clients cannot set headers).
func wsAuth(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	token := extractBearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return uuid.Nil, false
	}

	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// participantConversation loads the conversation and verifies membership.
func participantConversation(ctx context.Context, convID string, userID uuid.UUID) (*models.Conversation, bool) {
	id, err := uuid.Parse(convID)
	if err != nil {
		return nil, false
	}
	conv, err := services.GetConversation(ctx, id)
	if err != nil || !conv.HasParticipant(userID) {
		return nil, false
	}
	return conv, true
}

// ChatWebSocket is the live view of one conversation at a time. The client
// opens it with ?conversation_id= and may switch threads later with a
// "subscribe" frame; the old subscription is torn down before the new one is
// created, so frames from the previous thread never leak into the new view.
//
// Messages arriving while the viewer has the thread open are marked read
// immediately on delivery.
func ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := wsAuth(w, r)
	if !ok {
		return
	}

	convID := r.URL.Query().Get("conversation_id")
	if convID == "" {
		http.Error(w, "conversation_id is required", http.StatusBadRequest)
		return
	}
	conv, ok := participantConversation(r.Context(), convID, userID)
	if !ok {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Single writer goroutine; gorilla connections do not allow concurrent writes.
	// Never closed: every sender selects on ctx.Done, and the writer exits on
	// cancel, so the channel is simply abandoned when the handler returns.
	outgoing := make(chan services.RealtimeEvent, 32)
	go func() {
		for {
			select {
			case evt := <-outgoing:
				if err := conn.WriteJSON(evt); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// current subscription, replaced on every "subscribe" frame
	var unsubscribe func()
	subscribe := func(c *models.Conversation) {
		if unsubscribe != nil {
			unsubscribe()
		}
		eventsCh, cancelSub := services.SubscribeTopic(services.ConversationTopic(c.ID.String()))
		unsubscribe = cancelSub

		go func() {
			for evt := range eventsCh {
				// Viewer has the thread open: receipt is a read.
				if evt.Type == services.EventTypeMessage && evt.Message != nil &&
					evt.Message.SenderID != userID.String() {
					if _, err := services.MarkMessagesRead(ctx, evt.ConversationID, userID); err == nil {
						evt.Message.Read = true
					}
				}
				select {
				case outgoing <- evt:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	subscribe(conv)
	defer func() {
		if unsubscribe != nil {
			unsubscribe()
		}
	}()

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		var msg ChatClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "subscribe":
			next, ok := participantConversation(ctx, strings.TrimSpace(msg.ConversationID), userID)
			if !ok {
				sendEvent(ctx, outgoing, services.RealtimeEvent{
					Type:      services.EventTypeError,
					Error:     "conversation not found",
					Timestamp: time.Now().UTC(),
				})
				continue
			}
			conv = next
			subscribe(conv)

		case "message":
			handleIncomingMessage(ctx, outgoing, userID, conv, msg.Body)

		case "read":
			_, _ = services.MarkMessagesRead(ctx, conv.ID.String(), userID)

		case "ping":
			// Read deadline already refreshed above.

		default:
			// Ignore unknown types
		}
	}
}

// handleIncomingMessage runs the same append path as the HTTP endpoint and
// sends the sender an acknowledgement frame.
func handleIncomingMessage(
	ctx context.Context,
	outgoing chan<- services.RealtimeEvent,
	userID uuid.UUID,
	conv *models.Conversation,
	body string,
) {
	limit := services.CheckAndConsumeActionLimit(ctx, userID, services.ActionSendMessage)
	if !limit.Allowed {
		sendEvent(ctx, outgoing, services.RealtimeEvent{
			Type:           services.EventTypeError,
			ConversationID: conv.ID.String(),
			Error:          "daily message limit reached",
			Timestamp:      time.Now().UTC(),
		})
		return
	}

	msg, err := services.SendMessage(ctx, conv.ID, userID, body)
	if err != nil {
		reason := "failed to send message"
		switch err {
		case services.ErrBlockedPair:
			reason = "messaging is not available between these users"
		case models.ErrEmptyMessage:
			reason = "message body is empty"
		}
		sendEvent(ctx, outgoing, services.RealtimeEvent{
			Type:           services.EventTypeError,
			ConversationID: conv.ID.String(),
			Error:          reason,
			Timestamp:      time.Now().UTC(),
		})
		return
	}

	sendEvent(ctx, outgoing, services.RealtimeEvent{
		Type:           services.EventTypeMessageAck,
		ConversationID: msg.ConversationID,
		Message:        msg,
		Timestamp:      msg.CreatedAt,
	})
}

// sendEvent queues a frame for the writer, giving up when the connection is
// going away.
func sendEvent(ctx context.Context, outgoing chan<- services.RealtimeEvent, evt services.RealtimeEvent) {
	select {
	case outgoing <- evt:
	case <-ctx.Done():
	}
}

// InboxWebSocket pushes conversation-level activity (new threads, new
// messages anywhere) so the inbox list can refresh without polling.
func InboxWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := wsAuth(w, r)
	if !ok {
		return
	}

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	eventsCh, unsubscribe := services.SubscribeTopic(services.InboxTopic(userID.String()))
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range eventsCh {
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}()

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	// Drain client frames; the inbox socket is push-only apart from pings.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		select {
		case <-done:
			return
		default:
		}
	}
}
