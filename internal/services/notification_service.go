package services

import (
	"github.com/google/uuid"
	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/models"
)

// CreateNotification inserts an alert for a user.
func CreateNotification(userID uuid.UUID, nType models.NotificationType, title, body, link string) error {
	_, err := database.PostgresDB.Exec(`
		INSERT INTO notifications (id, created_at, user_id, type, title, body, link, read)
		VALUES (gen_random_uuid(), NOW(), $1, $2, $3, $4, $5, FALSE)
	`, userID, nType, title, body, link)
	return err
}

// ListNotifications returns a user's notifications, newest first.
func ListNotifications(userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, created_at, user_id, type, title, body, COALESCE(link, ''), read
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := database.PostgresDB.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.CreatedAt, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Link, &n.Read); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead flips one notification to read. Scoped to the owner
// so a user can never touch another user's feed.
func MarkNotificationRead(userID, notificationID uuid.UUID) error {
	_, err := database.PostgresDB.Exec(`
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	return err
}

// MarkAllNotificationsRead flips every unread notification of the user.
func MarkAllNotificationsRead(userID uuid.UUID) error {
	_, err := database.PostgresDB.Exec(`
		UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE
	`, userID)
	return err
}

// UnreadNotificationCount returns how many unread alerts the user has.
func UnreadNotificationCount(userID uuid.UUID) (int, error) {
	var count int
	err := database.PostgresDB.QueryRow(`
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID).Scan(&count)
	return count, err
}
