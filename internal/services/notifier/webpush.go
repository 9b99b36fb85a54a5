package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	config "github.com/NordCoder/Barberus/internal/config/notifier"
	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/domain/user"
	"github.com/NordCoder/Barberus/internal/obs"
	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
)

// WebPushSender delivers push content to browser subscriptions signed with
// the configured VAPID keys.
type WebPushSender struct {
	opts webpush.Options
	log  *zap.Logger
}

var _ notification.Sender = (*WebPushSender)(nil)

// NewWebPushSender falls back to a plain http.Client when client is nil.
func NewWebPushSender(cfg config.Push, client webpush.HTTPClient) *WebPushSender {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &WebPushSender{
		opts: webpush.Options{
			HTTPClient:      client,
			Subscriber:      cfg.Subscriber,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             int(ttl.Seconds()),
			Urgency:         webpush.UrgencyNormal,
		},
		log: obs.Component(nil, "notifier.webpush"),
	}
}

func (s *WebPushSender) WithLogger(l *zap.Logger) *WebPushSender {
	if l == nil {
		return s
	}
	cp := *s
	cp.log = obs.Component(l, "notifier.webpush")
	return &cp
}

func (s *WebPushSender) Channel() notification.Channel { return notification.ChannelPush }

func (s *WebPushSender) Send(ctx context.Context, to *user.User, c *notification.Content) error {
	if to == nil || !to.PushSubscription.IsWebPush() {
		return notification.ErrInvalidSubscription
	}
	sub := to.PushSubscription

	payload, err := json.Marshal(c.Push)
	if err != nil {
		return fmt.Errorf("webpush payload: %w", err)
	}

	opts := s.opts
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.Keys.P256dh, Auth: sub.Keys.Auth},
	}, &opts)
	if err != nil {
		s.log.Warn("webpush send", zap.Int64("user_id", to.ID), zap.Error(err))
		return fmt.Errorf("webpush: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		s.log.Info("webpush subscription gone", zap.Int64("user_id", to.ID), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("webpush status %d: %w", resp.StatusCode, notification.ErrSubscriptionExpired)
	case resp.StatusCode >= http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.log.Warn("webpush rejected", zap.Int64("user_id", to.ID), zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return &pushStatusError{status: resp.StatusCode, body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type pushStatusError struct {
	status int
	body   string
}

func (e *pushStatusError) Error() string {
	return fmt.Sprintf("webpush status %d: %s", e.status, e.body)
}

// permanentPush reports failures a retry cannot fix: a bad or expired
// subscription, or a 4xx other than 429.
func permanentPush(err error) bool {
	if errors.Is(err, notification.ErrInvalidSubscription) || errors.Is(err, notification.ErrSubscriptionExpired) {
		return true
	}
	var se *pushStatusError
	if errors.As(err, &se) {
		return se.status < 500 && se.status != http.StatusTooManyRequests
	}
	return false
}
