package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/worklane/worklane-backend/internal/database"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour

	userSessionPrefix    = "session:"
	userToSessionPrefix  = "user_session:"
	adminSessionPrefix   = "admin_session:"
	adminToSessionPrefix = "admin_to_session:"
)

func newSessionToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(tokenBytes), nil
}

// createSession stores token->principal and principal->token with expiry.
// Any existing session for the principal is invalidated first so the 7-day
// timer resets from the current login.
func createSession(sessionPrefix, reversePrefix string, principalID uuid.UUID) (string, error) {
	invalidateSessionsFor(sessionPrefix, reversePrefix, principalID)

	token, err := newSessionToken()
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	if err := database.RedisClient.Set(ctx, sessionPrefix+token, principalID.String(), SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, reversePrefix+principalID.String(), token, SessionDuration).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func validateSession(sessionPrefix, token string) (uuid.UUID, bool, error) {
	if token == "" {
		return uuid.Nil, false, nil
	}

	idStr, err := database.RedisClient.Get(context.Background(), sessionPrefix+token).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func invalidateSession(sessionPrefix, reversePrefix, token string) error {
	if token == "" {
		return nil
	}

	ctx := context.Background()
	idStr, err := database.RedisClient.Get(ctx, sessionPrefix+token).Result()
	if err == nil && idStr != "" {
		database.RedisClient.Del(ctx, reversePrefix+idStr)
	}
	return database.RedisClient.Del(ctx, sessionPrefix+token).Err()
}

func invalidateSessionsFor(sessionPrefix, reversePrefix string, principalID uuid.UUID) error {
	ctx := context.Background()
	reverseKey := reversePrefix + principalID.String()

	token, err := database.RedisClient.Get(ctx, reverseKey).Result()
	if err == nil && token != "" {
		database.RedisClient.Del(ctx, sessionPrefix+token)
	}
	return database.RedisClient.Del(ctx, reverseKey).Err()
}

// CreateSession creates a new session for a user and stores it in Redis.
func CreateSession(userID uuid.UUID) (string, error) {
	return createSession(userSessionPrefix, userToSessionPrefix, userID)
}

// ValidateSession checks a user session token and returns the user ID.
func ValidateSession(token string) (uuid.UUID, bool, error) {
	return validateSession(userSessionPrefix, token)
}

// InvalidateSession removes a user session (signout).
func InvalidateSession(token string) error {
	return invalidateSession(userSessionPrefix, userToSessionPrefix, token)
}

// InvalidateUserSessions invalidates all sessions for a user (password change, suspension).
func InvalidateUserSessions(userID uuid.UUID) error {
	return invalidateSessionsFor(userSessionPrefix, userToSessionPrefix, userID)
}

// CreateAdminSession creates a new session for an admin.
func CreateAdminSession(adminID uuid.UUID) (string, error) {
	return createSession(adminSessionPrefix, adminToSessionPrefix, adminID)
}

// ValidateAdminSession checks an admin session token and returns the admin ID.
func ValidateAdminSession(token string) (uuid.UUID, bool, error) {
	return validateSession(adminSessionPrefix, token)
}

// InvalidateAdminSession removes an admin session.
func InvalidateAdminSession(token string) error {
	return invalidateSession(adminSessionPrefix, adminToSessionPrefix, token)
}
