package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NordCoder/Barberus/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, first_name, last_name,
       email_notifications_enabled, push_notifications_enabled, push_subscription,
       created_at, updated_at`

const (
	qUserByID = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1;`

	// endpoint identifies a Web Push subscription, token an FCM one
	qUserClearSubscription = `
UPDATE users
SET push_subscription = NULL,
    updated_at        = NOW()
WHERE id = $1
  AND push_subscription IS NOT NULL
  AND (($2 <> '' AND push_subscription->>'endpoint' = $2)
    OR ($3 <> '' AND push_subscription->>'token' = $3));`
)

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ClearSubscription(ctx context.Context, id int64, sub *user.PushSubscription) (bool, error) {
	if sub == nil || (sub.Endpoint == "" && sub.Token == "") {
		return false, nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qUserClearSubscription, id, sub.Endpoint, sub.Token)
	if err != nil {
		return false, fmt.Errorf("user clear subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanUser(row pgx.Row, out *user.User) error {
	var sub []byte
	if err := row.Scan(
		&out.ID,
		&out.Email,
		&out.FirstName,
		&out.LastName,
		&out.EmailNotificationsEnabled,
		&out.PushNotificationsEnabled,
		&sub,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	out.PushSubscription = nil
	if len(sub) > 0 && string(sub) != "null" {
		var ps user.PushSubscription
		if err := json.Unmarshal(sub, &ps); err != nil {
			// a garbled subscription disables push for the user, it does not hide the user
			return nil
		}
		out.PushSubscription = &ps
	}
	return nil
}
