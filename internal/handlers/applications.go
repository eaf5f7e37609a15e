package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/models"
	"github.com/worklane/worklane-backend/internal/services"
)

type ApplyRequest struct {
	CoverLetter string `json:"cover_letter"`
}

// ApplicationView is an application with the applicant's profile attached,
// for the employer's review list.
type ApplicationView struct {
	models.JobApplication
	Applicant models.ProfileSummary `json:"applicant"`
}

type ApplicationResponse struct {
	Success     bool                   `json:"success"`
	Message     string                 `json:"message"`
	Application *models.JobApplication `json:"application,omitempty"`
}

type ApplicationListResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	Applications []ApplicationView `json:"applications"`
}

// Apply submits an application to a job. Freelancer accounts only, one
// application per job per user.
func Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActiveUser(w, r)
	if !ok {
		return
	}

	user, err := services.GetUserByID(userID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if user.Role != models.RoleFreelancer {
		http.Error(w, "Only freelancers can apply to jobs", http.StatusForbidden)
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	coverLetter := strings.TrimSpace(req.CoverLetter)
	if len(coverLetter) > 5000 {
		http.Error(w, "Cover letter must be at most 5000 characters", http.StatusBadRequest)
		return
	}

	// Only approved, open jobs accept applications.
	var employerID uuid.UUID
	var status models.ModerationStatus
	var isOpen bool
	err = database.PostgresDB.QueryRow(`
		SELECT employer_id, status, is_open FROM jobs WHERE id = $1
	`, jobID).Scan(&employerID, &status, &isOpen)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Job not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}
	if status != models.StatusApproved {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if !isOpen {
		http.Error(w, "This job is no longer accepting applications", http.StatusConflict)
		return
	}
	if employerID == userID {
		http.Error(w, "You cannot apply to your own job", http.StatusBadRequest)
		return
	}

	limit := services.CheckAndConsumeActionLimit(r.Context(), userID, services.ActionSendApplication)
	if !limit.Allowed {
		writeRateLimited(w, limit, "applications")
		return
	}

	appID := uuid.New()
	now := time.Now()

	_, err = database.PostgresDB.Exec(`
		INSERT INTO job_applications (id, created_at, job_id, applicant_id, cover_letter)
		VALUES ($1, $2, $3, $4, $5)
	`, appID, now, jobID, userID, coverLetter)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			http.Error(w, "You have already applied to this job", http.StatusConflict)
			return
		}
		log.Printf("ERROR: Failed to insert application: %v", err)
		http.Error(w, "Failed to submit application", http.StatusInternalServerError)
		return
	}

	// Let the employer know.
	if err := services.CreateNotification(employerID, models.NotificationNewApplication,
		"New application", user.Username+" applied to your job",
		"/jobs/"+jobID.String()+"/applications",
	); err != nil {
		log.Printf("apply: failed to create notification: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ApplicationResponse{
		Success: true,
		Message: "Application submitted",
		Application: &models.JobApplication{
			ID:          appID,
			CreatedAt:   now,
			JobID:       jobID,
			ApplicantID: userID,
			CoverLetter: coverLetter,
		},
	})
}

// ListJobApplications returns all applications for a job. Owner only.
func ListJobApplications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	var employerID uuid.UUID
	err = database.PostgresDB.QueryRow(`SELECT employer_id FROM jobs WHERE id = $1`, jobID).Scan(&employerID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Job not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}
	if employerID != userID {
		http.Error(w, "You can only view applications to your own jobs", http.StatusForbidden)
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT a.id, a.created_at, a.job_id, a.applicant_id, a.cover_letter,
			u.id, u.username, u.display_name, u.role, COALESCE(u.avatar_url, ''),
			u.is_secure, u.is_suspicious, u.fast_responder
		FROM job_applications a
		JOIN users u ON u.id = a.applicant_id
		WHERE a.job_id = $1
		ORDER BY a.created_at DESC
	`, jobID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	apps := []ApplicationView{}
	for rows.Next() {
		var v ApplicationView
		if err := rows.Scan(
			&v.ID, &v.CreatedAt, &v.JobID, &v.ApplicantID, &v.CoverLetter,
			&v.Applicant.ID, &v.Applicant.Username, &v.Applicant.DisplayName, &v.Applicant.Role,
			&v.Applicant.AvatarURL, &v.Applicant.IsSecure, &v.Applicant.IsSuspicious, &v.Applicant.FastResponder,
		); err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		apps = append(apps, v)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ApplicationListResponse{Success: true, Message: "OK", Applications: apps})
}

// MyApplications returns the authenticated freelancer's own applications.
func MyApplications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, created_at, job_id, applicant_id, cover_letter
		FROM job_applications
		WHERE applicant_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	apps := []models.JobApplication{}
	for rows.Next() {
		var a models.JobApplication
		if err := rows.Scan(&a.ID, &a.CreatedAt, &a.JobID, &a.ApplicantID, &a.CoverLetter); err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":      true,
		"applications": apps,
	})
}
