package notification

import "context"

// Repo is the append-only history of channel attempts.
type Repo interface {
	Create(ctx context.Context, n *Notification) error
}
