package notifier

import (
	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/domain/user"
)

// ResolveChannels returns the channels u should be notified on, email first.
// Push requires both the preference and a well-formed subscription.
func ResolveChannels(u *user.User) []notification.Channel {
	out := make([]notification.Channel, 0, 2)
	if u == nil {
		return out
	}
	if u.EmailNotificationsEnabled {
		out = append(out, notification.ChannelEmail)
	}
	if u.PushNotificationsEnabled && u.PushSubscription != nil && u.PushSubscription.Valid() {
		out = append(out, notification.ChannelPush)
	}
	return out
}
