package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/models"
)

var ErrSelfBlock = errors.New("blocks: cannot block yourself")

// BlockUser records that blocker does not want contact from target.
// Idempotent: re-blocking an already blocked user is a no-op.
// Existing conversations and messages are not touched; blocking affects
// future interaction only.
func BlockUser(blocker, target uuid.UUID) error {
	if blocker == target {
		return ErrSelfBlock
	}
	_, err := database.PostgresDB.Exec(`
		INSERT INTO blocks (id, created_at, blocker_id, blocked_id)
		VALUES (gen_random_uuid(), NOW(), $1, $2)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING
	`, blocker, target)
	return err
}

// UnblockUser removes blocker's block on target, restoring messaging.
func UnblockUser(blocker, target uuid.UUID) error {
	_, err := database.PostgresDB.Exec(`
		DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2
	`, blocker, target)
	return err
}

// IsBlockedEitherDirection reports whether a block exists in either
// orientation between the two users. A block record is symmetric in effect
// though stored directionally, so both orderings must be checked. This guard
// runs at conversation-creation time AND again at every message send, since
// a block may postdate the conversation.
func IsBlockedEitherDirection(userA, userB uuid.UUID) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)
	`, userA, userB).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ListBlockedUsers returns profile summaries of everyone the user has blocked.
func ListBlockedUsers(blocker uuid.UUID) ([]models.ProfileSummary, error) {
	rows, err := database.PostgresDB.Query(`
		SELECT u.id, u.username, u.display_name, u.role, COALESCE(u.avatar_url, ''),
			u.is_secure, u.is_suspicious, u.fast_responder
		FROM blocks b
		JOIN users u ON u.id = b.blocked_id
		WHERE b.blocker_id = $1
		ORDER BY b.created_at DESC
	`, blocker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProfileSummary
	for rows.Next() {
		var p models.ProfileSummary
		if err := rows.Scan(
			&p.ID, &p.Username, &p.DisplayName, &p.Role, &p.AvatarURL,
			&p.IsSecure, &p.IsSuspicious, &p.FastResponder,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
