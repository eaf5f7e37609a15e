package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/worklane/worklane-backend/internal/models"
	"github.com/worklane/worklane-backend/internal/services"
)

type UpdateProfileRequest struct {
	DisplayName string   `json:"display_name"`
	Bio         string   `json:"bio"`
	Skills      []string `json:"skills"`
}

type ProfileResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user,omitempty"`
}

// GetProfile returns a public profile by username.
func GetProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		http.Error(w, "Username is required", http.StatusBadRequest)
		return
	}

	user, err := services.GetUserByUsername(username)
	if err != nil {
		if err == services.ErrUserNotFound {
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ProfileResponse{
		Success: true,
		Message: "OK",
		User:    user,
	})
}

// UpdateProfile updates the authenticated user's own profile fields.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		http.Error(w, "Display name is required", http.StatusBadRequest)
		return
	}
	if len(req.Bio) > 2000 {
		http.Error(w, "Bio must be at most 2000 characters", http.StatusBadRequest)
		return
	}
	if len(req.Skills) > 20 {
		http.Error(w, "At most 20 skills allowed", http.StatusBadRequest)
		return
	}

	// Bio and skills feed public pages; screen them like any other content.
	if res := services.ScreenContent(req.Bio); res.Flagged() {
		services.FlagUserSuspicious(userID, "profile bio: "+strings.Join(res.Matched, ", "))
	}

	if err := services.UpdateProfile(userID, displayName, strings.TrimSpace(req.Bio), req.Skills); err != nil {
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	user, err := services.GetUserByID(userID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ProfileResponse{
		Success: true,
		Message: "Profile updated",
		User:    user,
	})
}
