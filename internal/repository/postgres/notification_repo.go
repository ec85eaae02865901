package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/licenzohq/expiry-notifier/internal/domain/notification"
)

var _ notification.Repo = (*NotificationRepo)(nil)

type NotificationRepo struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

const (
	qNotifInsert = `
INSERT INTO notifications
  (type, title, message, license_id, serial_id, user_id, read, priority, action_required, action_url)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8, $9)
RETURNING id, created_at;
`
	qNotifExistsSince = `
SELECT EXISTS (
  SELECT 1
  FROM notifications
  WHERE type = $1 AND user_id = $2 AND license_id = $3 AND serial_id = $4
    AND created_at >= $5
);
`
	qNotifByUser = `
SELECT id, type, title, message, license_id, serial_id, user_id, read, priority, action_required, action_url, created_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`
)

// Create runs against the transaction in ctx when one is present, so the
// daemon can pair it with the outbox enqueue atomically.
func (r *NotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	if err := eq.QueryRow(ctx, qNotifInsert,
		n.Type,
		n.Title,
		n.Message,
		n.LicenseID,
		n.SerialID,
		n.UserID,
		n.Priority,
		n.ActionRequired,
		n.ActionURL,
	).Scan(&n.ID, &n.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return notification.ErrDuplicate
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ExistsSince(ctx context.Context, typ string, userID, licenseID, serialID int64, since time.Time) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, qNotifExistsSince, typ, userID, licenseID, serialID, since).
		Scan(&exists); err != nil {
		return false, fmt.Errorf("notification exists: %w", err)
	}
	return exists, nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qNotifByUser, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0, limit)
	for rows.Next() {
		var n notification.Notification
		if err := rows.Scan(
			&n.ID, &n.Type, &n.Title, &n.Message,
			&n.LicenseID, &n.SerialID, &n.UserID,
			&n.Read, &n.Priority, &n.ActionRequired, &n.ActionURL, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		nc := n
		out = append(out, &nc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
