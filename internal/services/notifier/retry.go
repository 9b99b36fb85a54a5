package notifier

import (
	"context"

	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/domain/user"
	"github.com/NordCoder/Barberus/internal/obs/retry"
)

type retrySender struct {
	next notification.Sender
	pol  retry.Policy
}

// WithRetry wraps s so transient failures are retried under pol. A policy
// with one attempt or fewer returns s unchanged.
func WithRetry(s notification.Sender, pol retry.Policy) notification.Sender {
	if s == nil || pol.Attempts <= 1 {
		return s
	}
	return &retrySender{next: s, pol: pol}
}

func (r *retrySender) Channel() notification.Channel { return r.next.Channel() }

func (r *retrySender) Send(ctx context.Context, to *user.User, c *notification.Content) error {
	return retry.Do(ctx, func() error { return r.next.Send(ctx, to, c) }, r.pol)
}

// PermanentFor returns the non-retryable error classifier of a sender kind.
func PermanentFor(s notification.Sender) func(error) bool {
	switch s.(type) {
	case *Mailer:
		return permanentSMTP
	case *WebPushSender:
		return permanentPush
	case *FCMSender:
		return permanentFCM
	default:
		return permanentPush
	}
}
