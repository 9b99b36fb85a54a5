package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Barberus/internal/domain/notification"
)

var _ notification.Repo = (*NotificationRepoImpl)(nil)

type NotificationRepoImpl struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepoImpl { return &NotificationRepoImpl{db: db} }

const qNotifInsert = `
INSERT INTO notifications (appointment_id, user_id, channel, type, succeeded, error, sent_at, payload)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), COALESCE($7, now()), $8)
RETURNING id, sent_at;
`

func (r *NotificationRepoImpl) Create(ctx context.Context, n *notification.Notification) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.execQueryer(ctx).QueryRow(ctx, qNotifInsert,
		n.AppointmentID,
		n.UserID,
		string(n.Channel),
		n.Type,
		n.Succeeded,
		n.Error,
		nullTime(n.SentAt),
		n.Payload,
	).Scan(&n.ID, &n.SentAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
