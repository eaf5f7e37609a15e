package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/models"
	"github.com/worklane/worklane-backend/internal/services"
)

type FileReportRequest struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
	Details  string `json:"details"`
}

// FileReport records a complaint about another user for admin review.
func FileReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActiveUser(w, r)
	if !ok {
		return
	}

	var req FileReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if req.Username == "" || reason == "" {
		http.Error(w, "Username and reason are required", http.StatusBadRequest)
		return
	}
	if len(req.Details) > 5000 {
		http.Error(w, "Details must be at most 5000 characters", http.StatusBadRequest)
		return
	}

	reported, err := services.GetUserByUsername(req.Username)
	if err != nil {
		if err == services.ErrUserNotFound {
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}
	if reported.ID == userID {
		http.Error(w, "You cannot report yourself", http.StatusBadRequest)
		return
	}

	reportID := uuid.New()
	now := time.Now()

	_, err = database.PostgresDB.Exec(`
		INSERT INTO reports (id, created_at, reporter_id, reported_user_id, reason, details, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, reportID, now, userID, reported.ID, reason, strings.TrimSpace(req.Details), models.StatusPending)
	if err != nil {
		log.Printf("ERROR: Failed to insert report: %v", err)
		http.Error(w, "Failed to file report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Report filed. Our team will review it.",
	})
}

// MyReports returns reports the caller has filed.
func MyReports(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, reporter_id, reported_user_id, reason, COALESCE(details, ''), status, resolved_by
		FROM reports WHERE reporter_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.ID, &rep.CreatedAt, &rep.ReporterID, &rep.ReportedUserID,
			&rep.Reason, &rep.Details, &rep.Status, &rep.ResolvedBy); err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"reports": reports,
	})
}
