package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/worklane/worklane-backend/internal/models"
	"github.com/worklane/worklane-backend/internal/services"
)

type BlockResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type BlockListResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Blocked []models.ProfileSummary `json:"blocked"`
}

// BlockUser blocks the named user. Idempotent.
func BlockUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	target, err := services.GetUserByUsername(chi.URLParam(r, "username"))
	if err != nil {
		if err == services.ErrUserNotFound {
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if err := services.BlockUser(userID, target.ID); err != nil {
		if err == services.ErrSelfBlock {
			http.Error(w, "You cannot block yourself", http.StatusBadRequest)
		} else {
			http.Error(w, "Failed to block user", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BlockResponse{Success: true, Message: "User blocked"})
}

// UnblockUser removes the caller's block on the named user.
func UnblockUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	target, err := services.GetUserByUsername(chi.URLParam(r, "username"))
	if err != nil {
		if err == services.ErrUserNotFound {
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if err := services.UnblockUser(userID, target.ID); err != nil {
		http.Error(w, "Failed to unblock user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BlockResponse{Success: true, Message: "User unblocked"})
}

// ListBlocked returns everyone the caller has blocked.
func ListBlocked(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	blocked, err := services.ListBlockedUsers(userID)
	if err != nil {
		http.Error(w, "Failed to load block list", http.StatusInternalServerError)
		return
	}
	if blocked == nil {
		blocked = []models.ProfileSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BlockListResponse{Success: true, Message: "OK", Blocked: blocked})
}
