package repo

import (
	"context"
	"errors"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/domain/user"
	pg "github.com/NordCoder/Barberus/internal/repository/postgres"
)

// UserReader translates storage misses into notification.ErrRecipientNotFound.
type UserReader struct{ R user.Repo }

type AppointmentReader struct{ R appointment.Repo }

type cacheInvalidator interface {
	Invalidate(ctx context.Context, id int64) error
}

// SubscriptionPruner clears a push subscription the provider no longer accepts.
// A subscription the user replaced in the meantime is left alone.
type SubscriptionPruner struct {
	R     user.Repo
	Cache cacheInvalidator
}

func (a UserReader) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, err := a.R.GetByID(ctx, id)
	if errors.Is(err, pg.ErrNotFound) {
		return nil, notification.ErrRecipientNotFound
	}
	return u, err
}

func (a AppointmentReader) GetDetails(ctx context.Context, id int64) (*appointment.Details, error) {
	d, err := a.R.GetDetails(ctx, id)
	if errors.Is(err, pg.ErrNotFound) {
		return nil, appointment.ErrNotFound
	}
	return d, err
}

func (p SubscriptionPruner) PruneSubscription(ctx context.Context, userID int64, expired *user.PushSubscription) error {
	if expired == nil {
		return nil
	}
	cleared, err := p.R.ClearSubscription(ctx, userID, expired)
	if err != nil || !cleared {
		return err
	}
	if p.Cache != nil {
		return p.Cache.Invalidate(ctx, userID)
	}
	return nil
}
