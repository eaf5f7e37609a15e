package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/models"
)

var ErrUserNotFound = errors.New("users: user not found")

const userColumns = `id, created_at, updated_at, username, display_name, role, COALESCE(bio, ''),
	skills, COALESCE(avatar_url, ''), COALESCE(cv_url, ''),
	is_secure, is_suspicious, fast_responder, is_suspended, is_active`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var skills pq.StringArray
	err := row.Scan(
		&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Username, &u.DisplayName, &u.Role, &u.Bio,
		&skills, &u.AvatarURL, &u.CVURL,
		&u.IsSecure, &u.IsSuspicious, &u.FastResponder, &u.IsSuspended, &u.IsActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Skills = skills
	return &u, nil
}

// GetUserByID returns an active user's full profile.
func GetUserByID(userID uuid.UUID) (*models.User, error) {
	row := database.PostgresDB.QueryRow(`
		SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active = TRUE
	`, userID)
	return scanUser(row)
}

// GetUserByUsername returns an active user's full profile by (normalized) username.
func GetUserByUsername(username string) (*models.User, error) {
	row := database.PostgresDB.QueryRow(`
		SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1) AND is_active = TRUE
	`, username)
	return scanUser(row)
}

// GetProfileSummary returns the compact profile view embedded in listings.
func GetProfileSummary(userID uuid.UUID) (*models.ProfileSummary, error) {
	var p models.ProfileSummary
	err := database.PostgresDB.QueryRow(`
		SELECT id, username, display_name, role, COALESCE(avatar_url, ''),
			is_secure, is_suspicious, fast_responder
		FROM users WHERE id = $1 AND is_active = TRUE
	`, userID).Scan(
		&p.ID, &p.Username, &p.DisplayName, &p.Role, &p.AvatarURL,
		&p.IsSecure, &p.IsSuspicious, &p.FastResponder,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetUsernameByID retrieves username by user ID. Returns "" when not found.
func GetUsernameByID(userID string) (string, error) {
	parsedID, err := uuid.Parse(userID)
	if err != nil {
		return "", err
	}

	var username string
	err = database.PostgresDB.QueryRow(`
		SELECT username FROM users WHERE id = $1 AND is_active = TRUE
	`, parsedID).Scan(&username)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return username, nil
}

// IsUserSuspended reports whether the user is currently suspended.
// Suspended users can browse but not post, apply or message.
func IsUserSuspended(userID uuid.UUID) (bool, error) {
	var suspended bool
	err := database.PostgresDB.QueryRow(`
		SELECT is_suspended FROM users WHERE id = $1
	`, userID).Scan(&suspended)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, ErrUserNotFound
		}
		return false, err
	}
	return suspended, nil
}

// UpdateProfile updates the owner-editable profile fields.
func UpdateProfile(userID uuid.UUID, displayName, bio string, skills []string) error {
	_, err := database.PostgresDB.Exec(`
		UPDATE users SET display_name = $2, bio = $3, skills = $4, updated_at = NOW()
		WHERE id = $1
	`, userID, displayName, bio, pq.StringArray(skills))
	return err
}

// SetProfileAssets updates avatar/CV URLs after an upload. Empty values keep
// the existing URL.
func SetProfileAssets(userID uuid.UUID, avatarURL, cvURL string) error {
	_, err := database.PostgresDB.Exec(`
		UPDATE users SET
			avatar_url = COALESCE(NULLIF($2, ''), avatar_url),
			cv_url = COALESCE(NULLIF($3, ''), cv_url),
			updated_at = NOW()
		WHERE id = $1
	`, userID, avatarURL, cvURL)
	return err
}
