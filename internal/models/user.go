package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the marketplace role a user picked at signup.
// Valid values: "freelancer", "employer".
type UserRole string

const (
	RoleFreelancer UserRole = "freelancer"
	RoleEmployer   UserRole = "employer"
)

// ValidRole reports whether the given role tag is one we accept.
func ValidRole(role UserRole) bool {
	return role == RoleFreelancer || role == RoleEmployer
}

// User is the public marketplace profile stored in PostgreSQL.
type User struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Role        UserRole `json:"role"`
	Bio         string   `json:"bio,omitempty"`
	Skills      []string `json:"skills"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	CVURL       string   `json:"cv_url,omitempty"`

	// Badge flags, set by admins (is_secure, is_suspicious) or earned (fast_responder).
	IsSecure      bool `json:"is_secure"`
	IsSuspicious  bool `json:"is_suspicious"`
	FastResponder bool `json:"fast_responder"`

	IsSuspended bool `json:"is_suspended"`
	IsActive    bool `json:"is_active"`
}

// ProfileSummary is the compact counterpart view embedded in conversation
// listings and application listings.
type ProfileSummary struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	Role          UserRole  `json:"role"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	IsSecure      bool      `json:"is_secure"`
	IsSuspicious  bool      `json:"is_suspicious"`
	FastResponder bool      `json:"fast_responder"`
}

// Admin is a back-office account; admins moderate jobs, comments and reports.
type Admin struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
}
