package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/services"
	"github.com/worklane/worklane-backend/pkg/utils"
)

type AdminSigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AdminAuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// requireAdmin validates the admin session and returns the admin ID.
func requireAdmin(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	token := extractBearerToken(r)
	adminID, valid, err := services.ValidateAdminSession(token)
	if err != nil || !valid {
		http.Error(w, "Admin authentication required", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return adminID, true
}

// AdminSignin handles back-office login.
func AdminSignin(w http.ResponseWriter, r *http.Request) {
	var req AdminSigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	var adminID uuid.UUID
	var passwordHash string
	var isActive bool
	err := database.PostgresDB.QueryRow(`
		SELECT id, password_hash, is_active FROM admins WHERE LOWER(username) = LOWER($1)
	`, req.Username).Scan(&adminID, &passwordHash, &isActive)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	valid, err := utils.VerifyPassword(req.Password, passwordHash)
	if err != nil || !valid {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	if !isActive {
		http.Error(w, "This admin account has been deactivated", http.StatusForbidden)
		return
	}

	token, err := services.CreateAdminSession(adminID)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Admin signed in: %s", req.Username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AdminAuthResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
	})
}

// AdminSignout invalidates the admin session.
func AdminSignout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token != "" {
		if err := services.InvalidateAdminSession(token); err != nil {
			log.Printf("admin signout: failed to invalidate session: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AdminAuthResponse{Success: true, Message: "Signed out"})
}
