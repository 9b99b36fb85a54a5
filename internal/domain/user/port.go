package user

import "context"

type Repo interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	// ClearSubscription removes the user's push subscription only if it is
	// still sub, matched by endpoint or token. It reports whether a row changed.
	ClearSubscription(ctx context.Context, id int64, sub *PushSubscription) (bool, error)
}
