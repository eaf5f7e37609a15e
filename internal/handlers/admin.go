package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/middleware"
	"github.com/worklane/worklane-backend/internal/models"
	"github.com/worklane/worklane-backend/internal/services"
)

type ReviewRequest struct {
	Approve bool `json:"approve"`
}

type AdminActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func reviewTarget(req ReviewRequest) models.ModerationStatus {
	if req.Approve {
		return models.StatusApproved
	}
	return models.StatusRejected
}

// PendingJobs lists the job moderation queue, oldest first so nothing
// starves at the back.
func PendingJobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT `+jobColumns+` FROM jobs WHERE status = $1 ORDER BY created_at ASC
	`, models.StatusPending)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	jobs, err := scanJobRows(rows)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(JobListResponse{Success: true, Message: "OK", Jobs: jobs})
}

// ReviewJob approves or rejects a pending job. Only pending jobs can be
// reviewed; decided jobs are final.
func ReviewJob(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	target := reviewTarget(req)

	var employerID uuid.UUID
	var title string
	var status models.ModerationStatus
	err = database.PostgresDB.QueryRow(`
		SELECT employer_id, title, status FROM jobs WHERE id = $1
	`, jobID).Scan(&employerID, &title, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Job not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if !models.ValidModerationTransition(status, target) {
		http.Error(w, "This job has already been reviewed", http.StatusConflict)
		return
	}

	_, err = database.PostgresDB.Exec(`
		UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3
	`, jobID, target, models.StatusPending)
	if err != nil {
		http.Error(w, "Failed to update job", http.StatusInternalServerError)
		return
	}

	nType := models.NotificationJobApproved
	title2 := "Job approved"
	body := "Your job \"" + title + "\" is now live"
	if target == models.StatusRejected {
		nType = models.NotificationJobRejected
		title2 = "Job rejected"
		body = "Your job \"" + title + "\" was not approved"
	}
	if err := services.CreateNotification(employerID, nType, title2, body, "/jobs/"+jobID.String()); err != nil {
		log.Printf("review job: failed to create notification: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AdminActionResponse{Success: true, Message: "Job " + string(target)})
}

// PendingComments lists the profile comment moderation queue.
func PendingComments(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, profile_user_id, author_id, content, status
		FROM profile_comments WHERE status = $1 ORDER BY created_at ASC
	`, models.StatusPending)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	comments := []models.ProfileComment{}
	for rows.Next() {
		var c models.ProfileComment
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.ProfileUserID, &c.AuthorID, &c.Content, &c.Status); err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "comments": comments})
}

// ReviewComment approves or rejects a pending profile comment.
func ReviewComment(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	commentID, err := uuid.Parse(chi.URLParam(r, "commentID"))
	if err != nil {
		http.Error(w, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	target := reviewTarget(req)

	var authorID uuid.UUID
	var status models.ModerationStatus
	err = database.PostgresDB.QueryRow(`
		SELECT author_id, status FROM profile_comments WHERE id = $1
	`, commentID).Scan(&authorID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Comment not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if !models.ValidModerationTransition(status, target) {
		http.Error(w, "This comment has already been reviewed", http.StatusConflict)
		return
	}

	_, err = database.PostgresDB.Exec(`
		UPDATE profile_comments SET status = $2 WHERE id = $1 AND status = $3
	`, commentID, target, models.StatusPending)
	if err != nil {
		http.Error(w, "Failed to update comment", http.StatusInternalServerError)
		return
	}

	nType := models.NotificationCommentApproved
	title := "Comment approved"
	body := "Your profile comment is now visible"
	if target == models.StatusRejected {
		nType = models.NotificationCommentRejected
		title = "Comment rejected"
		body = "Your profile comment was not approved"
	}
	if err := services.CreateNotification(authorID, nType, title, body, ""); err != nil {
		log.Printf("review comment: failed to create notification: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AdminActionResponse{Success: true, Message: "Comment " + string(target)})
}

// PendingReports lists open user reports, oldest first.
func PendingReports(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, reporter_id, reported_user_id, reason, COALESCE(details, ''), status, resolved_by
		FROM reports WHERE status = $1 ORDER BY created_at ASC
	`, models.StatusPending)
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
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "reports": reports})
}

// ResolveReport closes a report. Approve means action was taken against the
// reported user; reject means the report was dismissed.
func ResolveReport(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	reportID, err := uuid.Parse(chi.URLParam(r, "reportID"))
	if err != nil {
		http.Error(w, "Invalid report ID", http.StatusBadRequest)
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	target := reviewTarget(req)

	var reporterID uuid.UUID
	var status models.ModerationStatus
	err = database.PostgresDB.QueryRow(`
		SELECT reporter_id, status FROM reports WHERE id = $1
	`, reportID).Scan(&reporterID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Report not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if !models.ValidModerationTransition(status, target) {
		http.Error(w, "This report has already been resolved", http.StatusConflict)
		return
	}

	_, err = database.PostgresDB.Exec(`
		UPDATE reports SET status = $2, resolved_by = $3 WHERE id = $1 AND status = $4
	`, reportID, target, adminID, models.StatusPending)
	if err != nil {
		http.Error(w, "Failed to update report", http.StatusInternalServerError)
		return
	}

	if err := services.CreateNotification(reporterID, models.NotificationReportResolved,
		"Report resolved", "Your report has been reviewed", ""); err != nil {
		log.Printf("resolve report: failed to create notification: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AdminActionResponse{Success: true, Message: "Report " + string(target)})
}

// SetSuspended suspends or unsuspends a user. Suspended users keep read
// access but lose posting, applying and messaging.
func SetSuspended(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req struct {
		Suspended bool `json:"suspended"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := services.GetUserByUsername(chi.URLParam(r, "username"))
	if err != nil {
		if err == services.ErrUserNotFound {
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	_, err = database.PostgresDB.Exec(`
		UPDATE users SET is_suspended = $2, updated_at = NOW() WHERE id = $1
	`, user.ID, req.Suspended)
	if err != nil {
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	action := "unsuspended"
	if req.Suspended {
		action = "suspended"
	}
	log.Printf("⚠️ User %s %s by admin", user.Username, action)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AdminActionResponse{Success: true, Message: "User " + action})
}

// SetBadges updates a user's admin-assigned badge flags.
func SetBadges(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req struct {
		IsSecure      bool `json:"is_secure"`
		IsSuspicious  bool `json:"is_suspicious"`
		FastResponder bool `json:"fast_responder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := services.GetUserByUsername(chi.URLParam(r, "username"))
	if err != nil {
		if err == services.ErrUserNotFound {
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	_, err = database.PostgresDB.Exec(`
		UPDATE users SET is_secure = $2, is_suspicious = $3, fast_responder = $4, updated_at = NOW()
		WHERE id = $1
	`, user.ID, req.IsSecure, req.IsSuspicious, req.FastResponder)
	if err != nil {
		http.Error(w, "Failed to update badges", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AdminActionResponse{Success: true, Message: "Badges updated"})
}

// SuspiciousUsers lists accounts flagged by content screening or admins.
func SuspiciousUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, username, display_name, role, COALESCE(avatar_url, ''),
			is_secure, is_suspicious, fast_responder
		FROM users WHERE is_suspicious = TRUE AND is_active = TRUE
		ORDER BY updated_at DESC
	`)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	users := []models.ProfileSummary{}
	for rows.Next() {
		var p models.ProfileSummary
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Role, &p.AvatarURL,
			&p.IsSecure, &p.IsSuspicious, &p.FastResponder); err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		users = append(users, p)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "users": users})
}

// UnblockIPAddress lifts a rate-limiter IP block.
func UnblockIPAddress(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req struct {
		IPAddress string `json:"ip_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IPAddress == "" {
		http.Error(w, "ip_address is required", http.StatusBadRequest)
		return
	}

	if err := middleware.UnblockIP(req.IPAddress); err != nil {
		http.Error(w, "Failed to unblock IP", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AdminActionResponse{Success: true, Message: "IP unblocked"})
}
