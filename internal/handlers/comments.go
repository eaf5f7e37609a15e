package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/models"
	"github.com/worklane/worklane-backend/internal/services"
)

type PostCommentRequest struct {
	Content string `json:"content"`
}

// CommentView is an approved comment with its author attached.
type CommentView struct {
	models.ProfileComment
	Author models.ProfileSummary `json:"author"`
}

type CommentListResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Comments []CommentView `json:"comments"`
}

// PostComment leaves a comment on a user's profile. Comments are hidden
// until an admin approves them.
func PostComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActiveUser(w, r)
	if !ok {
		return
	}

	profileUser, err := services.GetUserByUsername(chi.URLParam(r, "username"))
	if err != nil {
		if err == services.ErrUserNotFound {
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}
	if profileUser.ID == userID {
		http.Error(w, "You cannot comment on your own profile", http.StatusBadRequest)
		return
	}

	var req PostCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		http.Error(w, "Comment content is required", http.StatusBadRequest)
		return
	}
	if len(content) > 1000 {
		http.Error(w, "Comment must be at most 1000 characters", http.StatusBadRequest)
		return
	}

	if res := services.ScreenContent(content); res.Flagged() {
		services.FlagUserSuspicious(userID, "profile comment: "+strings.Join(res.Matched, ", "))
	}

	commentID := uuid.New()
	now := time.Now()

	_, err = database.PostgresDB.Exec(`
		INSERT INTO profile_comments (id, created_at, profile_user_id, author_id, content, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, commentID, now, profileUser.ID, userID, content, models.StatusPending)
	if err != nil {
		log.Printf("ERROR: Failed to insert comment: %v", err)
		http.Error(w, "Failed to post comment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Comment submitted for review",
	})
}

// ListComments returns a profile's approved comments, newest first.
func ListComments(w http.ResponseWriter, r *http.Request) {
	profileUser, err := services.GetUserByUsername(chi.URLParam(r, "username"))
	if err != nil {
		if err == services.ErrUserNotFound {
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT c.id, c.created_at, c.profile_user_id, c.author_id, c.content, c.status,
			u.id, u.username, u.display_name, u.role, COALESCE(u.avatar_url, ''),
			u.is_secure, u.is_suspicious, u.fast_responder
		FROM profile_comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.profile_user_id = $1 AND c.status = $2
		ORDER BY c.created_at DESC
	`, profileUser.ID, models.StatusApproved)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	comments := []CommentView{}
	for rows.Next() {
		var v CommentView
		if err := rows.Scan(
			&v.ID, &v.CreatedAt, &v.ProfileUserID, &v.AuthorID, &v.Content, &v.Status,
			&v.Author.ID, &v.Author.Username, &v.Author.DisplayName, &v.Author.Role,
			&v.Author.AvatarURL, &v.Author.IsSecure, &v.Author.IsSuspicious, &v.Author.FastResponder,
		); err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		comments = append(comments, v)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CommentListResponse{Success: true, Message: "OK", Comments: comments})
}
