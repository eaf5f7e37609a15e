package handlers

import (
	"database/sql"
	"encoding/json"
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

type CreateJobRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Budget      int      `json:"budget"`
	Tags        []string `json:"tags"`
}

type JobResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Job     *models.Job `json:"job,omitempty"`
}

type JobListResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Jobs    []models.Job `json:"jobs"`
}

type RateLimitedResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	ResetAt time.Time `json:"reset_at"`
}

const jobColumns = `id, created_at, updated_at, employer_id, title, description, budget, tags, status, is_open`

func scanJobRows(rows *sql.Rows) ([]models.Job, error) {
	var out []models.Job
	for rows.Next() {
		var j models.Job
		var tags pq.StringArray
		if err := rows.Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt, &j.EmployerID,
			&j.Title, &j.Description, &j.Budget, &tags, &j.Status, &j.IsOpen); err != nil {
			return nil, err
		}
		j.Tags = tags
		out = append(out, j)
	}
	return out, rows.Err()
}

func writeRateLimited(w http.ResponseWriter, status services.RateLimitStatus, what string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(RateLimitedResponse{
		Success: false,
		Message: "You have reached the daily limit for " + what + ". Please try again later.",
		ResetAt: status.ResetAt,
	})
}

// CreateJob posts a new job. Employer accounts only; the job enters the
// moderation queue as pending and is not publicly listed until approved.
func CreateJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActiveUser(w, r)
	if !ok {
		return
	}

	user, err := services.GetUserByID(userID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if user.Role != models.RoleEmployer {
		http.Error(w, "Only employers can post jobs", http.StatusForbidden)
		return
	}

	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		http.Error(w, "Title and description are required", http.StatusBadRequest)
		return
	}
	if len(title) > 200 {
		http.Error(w, "Title must be at most 200 characters", http.StatusBadRequest)
		return
	}
	if req.Budget < 0 {
		http.Error(w, "Budget cannot be negative", http.StatusBadRequest)
		return
	}
	if len(req.Tags) > 10 {
		http.Error(w, "At most 10 tags allowed", http.StatusBadRequest)
		return
	}

	limit := services.CheckAndConsumeActionLimit(r.Context(), userID, services.ActionCreateJob)
	if !limit.Allowed {
		writeRateLimited(w, limit, "job posting")
		return
	}

	// Flag scammy postings for the admin reviewing the queue.
	if res := services.ScreenContent(title + " " + description); res.Flagged() {
		services.FlagUserSuspicious(userID, "job post: "+strings.Join(res.Matched, ", "))
	}

	jobID := uuid.New()
	now := time.Now()

	_, err = database.PostgresDB.Exec(`
		INSERT INTO jobs (id, created_at, updated_at, employer_id, title, description, budget, tags, status, is_open)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
	`, jobID, now, now, userID, title, description, req.Budget, pq.StringArray(req.Tags), models.StatusPending)
	if err != nil {
		log.Printf("ERROR: Failed to insert job: %v", err)
		http.Error(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	job := &models.Job{
		ID:          jobID,
		CreatedAt:   now,
		UpdatedAt:   now,
		EmployerID:  userID,
		Title:       title,
		Description: description,
		Budget:      req.Budget,
		Tags:        req.Tags,
		Status:      models.StatusPending,
		IsOpen:      true,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(JobResponse{
		Success: true,
		Message: "Job submitted for review",
		Job:     job,
	})
}

// ListJobs returns the public job board: approved and still open, newest first.
// Optional ?tag= filters by tag.
func ListJobs(w http.ResponseWriter, r *http.Request) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 AND is_open = TRUE`
	args := []interface{}{models.StatusApproved}

	if tag := strings.TrimSpace(r.URL.Query().Get("tag")); tag != "" {
		query += ` AND $2 = ANY(tags)`
		args = append(args, tag)
	}
	query += ` ORDER BY created_at DESC LIMIT 100`

	rows, err := database.PostgresDB.Query(query, args...)
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

// GetJob returns one job. Pending/rejected jobs are visible only to their owner.
func GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	var j models.Job
	var tags pq.StringArray
	err = database.PostgresDB.QueryRow(`
		SELECT `+jobColumns+` FROM jobs WHERE id = $1
	`, jobID).Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt, &j.EmployerID,
		&j.Title, &j.Description, &j.Budget, &tags, &j.Status, &j.IsOpen)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Job not found", http.StatusNotFound)
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}
	j.Tags = tags

	if j.Status != models.StatusApproved {
		userID, _, _ := services.ValidateSession(extractBearerToken(r))
		if userID != j.EmployerID {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(JobResponse{Success: true, Message: "OK", Job: &j})
}

// MyJobs returns the authenticated employer's own jobs, all statuses.
func MyJobs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT `+jobColumns+` FROM jobs WHERE employer_id = $1 ORDER BY created_at DESC
	`, userID)
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

// CloseJob marks the owner's job as no longer accepting applications.
func CloseJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	res, err := database.PostgresDB.Exec(`
		UPDATE jobs SET is_open = FALSE, updated_at = NOW()
		WHERE id = $1 AND employer_id = $2
	`, jobID, userID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(JobResponse{Success: true, Message: "Job closed"})
}

// GetActionLimits reports the caller's remaining daily allowances without
// consuming any.
func GetActionLimits(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limits := map[string]services.RateLimitStatus{
		string(services.ActionCreateJob):       services.PeekActionLimit(r.Context(), userID, services.ActionCreateJob),
		string(services.ActionSendApplication): services.PeekActionLimit(r.Context(), userID, services.ActionSendApplication),
		string(services.ActionSendMessage):     services.PeekActionLimit(r.Context(), userID, services.ActionSendMessage),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"limits":  limits,
	})
}
