package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/worklane/worklane-backend/internal/models"
	"github.com/worklane/worklane-backend/internal/services"
)

type OpenConversationRequest struct {
	Username string `json:"username"`
}

type ConversationResponse struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message"`
	Conversation *models.Conversation `json:"conversation,omitempty"`
	Created      bool                 `json:"created"`
}

type ConversationListResponse struct {
	Success       bool                         `json:"success"`
	Message       string                       `json:"message"`
	Conversations []models.ConversationSummary `json:"conversations"`
}

type SendMessageRequest struct {
	Body string `json:"body"`
}

type MessageResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    *models.ChatMessage `json:"data,omitempty"`
}

type MessageListResponse struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	Messages []models.ChatMessage `json:"messages"`
	HasMore  bool                 `json:"has_more"`
}

// writeChatError maps chat service errors to HTTP statuses.
func writeChatError(w http.ResponseWriter, err error) {
	switch err {
	case models.ErrSelfConversation:
		http.Error(w, "You cannot message yourself", http.StatusBadRequest)
	case models.ErrMissingUser:
		http.Error(w, "Both participants are required", http.StatusBadRequest)
	case models.ErrEmptyMessage:
		http.Error(w, "Message body is empty", http.StatusBadRequest)
	case models.ErrNotParticipant:
		http.Error(w, "You are not a participant in this conversation", http.StatusForbidden)
	case services.ErrBlockedPair:
		http.Error(w, "Messaging is not available between these users", http.StatusForbidden)
	case services.ErrConversationNotFound:
		http.Error(w, "Conversation not found", http.StatusNotFound)
	case services.ErrUserNotFound:
		http.Error(w, "User not found", http.StatusNotFound)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// loadParticipantConversation resolves the conversation and checks that the
// caller is a participant. Writes the error response itself on failure.
func loadParticipantConversation(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*models.Conversation, bool) {
	convID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		http.Error(w, "Invalid conversation ID", http.StatusBadRequest)
		return nil, false
	}

	conv, err := services.GetConversation(r.Context(), convID)
	if err != nil {
		writeChatError(w, err)
		return nil, false
	}
	if !conv.HasParticipant(userID) {
		// 404 so outsiders cannot probe which conversations exist.
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return nil, false
	}
	return conv, true
}

// OpenConversation returns the caller's conversation with the named user,
// creating it on first contact.
func OpenConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActiveUser(w, r)
	if !ok {
		return
	}

	var req OpenConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		http.Error(w, "Username is required", http.StatusBadRequest)
		return
	}

	other, err := services.GetUserByUsername(req.Username)
	if err != nil {
		writeChatError(w, err)
		return
	}

	conv, created, err := services.GetOrCreateConversation(r.Context(), userID, other.ID)
	if err != nil {
		writeChatError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if created {
		w.WriteHeader(http.StatusCreated)
	}
	json.NewEncoder(w).Encode(ConversationResponse{
		Success:      true,
		Message:      "OK",
		Conversation: conv,
		Created:      created,
	})
}

// ListConversations returns the caller's inbox, most recently active first.
func ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	summaries, err := services.ListConversationsForUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to load conversations", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []models.ConversationSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ConversationListResponse{
		Success:       true,
		Message:       "OK",
		Conversations: summaries,
	})
}

// GetMessages returns one page of conversation history, oldest first.
// ?before=<RFC3339> pages backwards; ?limit= caps the page (default 50).
func GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	conv, ok := loadParticipantConversation(w, r, userID)
	if !ok {
		return
	}

	var before *time.Time
	if s := r.URL.Query().Get("before"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			http.Error(w, "Invalid before timestamp, use RFC3339", http.StatusBadRequest)
			return
		}
		before = &t
	}

	limit := int64(50)
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			limit = n
		}
	}

	msgs, hasMore, err := services.ListMessagesWithCache(r.Context(), conv.ID.String(), before, limit)
	if err != nil {
		http.Error(w, "Failed to load messages", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MessageListResponse{
		Success:  true,
		Message:  "OK",
		Messages: msgs,
		HasMore:  hasMore,
	})
}

// PostMessage appends a message to the conversation.
func PostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActiveUser(w, r)
	if !ok {
		return
	}

	conv, ok := loadParticipantConversation(w, r, userID)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Body) > 5000 {
		http.Error(w, "Message must be at most 5000 characters", http.StatusBadRequest)
		return
	}

	limit := services.CheckAndConsumeActionLimit(r.Context(), userID, services.ActionSendMessage)
	if !limit.Allowed {
		writeRateLimited(w, limit, "messages")
		return
	}

	msg, err := services.SendMessage(r.Context(), conv.ID, userID, req.Body)
	if err != nil {
		writeChatError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(MessageResponse{
		Success: true,
		Message: "Message sent",
		Data:    msg,
	})
}

// MarkRead flips every unread message from the counterpart to read.
func MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	conv, ok := loadParticipantConversation(w, r, userID)
	if !ok {
		return
	}

	modified, err := services.MarkMessagesRead(r.Context(), conv.ID.String(), userID)
	if err != nil {
		http.Error(w, "Failed to mark messages read", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"message":  "OK",
		"modified": modified,
	})
}
