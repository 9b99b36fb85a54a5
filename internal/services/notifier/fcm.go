package notifier

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	config "github.com/NordCoder/Barberus/internal/config/notifier"
	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/domain/user"
	"github.com/NordCoder/Barberus/internal/obs"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type fcmClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender delivers push content to Firebase registration tokens.
type FCMSender struct {
	client fcmClient
	log    *zap.Logger
}

var _ notification.Sender = (*FCMSender)(nil)

func NewFCMSender(ctx context.Context, cfg config.Push, log *zap.Logger) (*FCMSender, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentials))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return newFCMSender(client, log), nil
}

func newFCMSender(client fcmClient, log *zap.Logger) *FCMSender {
	return &FCMSender{client: client, log: obs.Component(log, "notifier.fcm")}
}

func (s *FCMSender) Channel() notification.Channel { return notification.ChannelPush }

func (s *FCMSender) Send(ctx context.Context, to *user.User, c *notification.Content) error {
	if to == nil || !to.PushSubscription.IsFCM() {
		return notification.ErrInvalidSubscription
	}

	msg := &messaging.Message{
		Token: to.PushSubscription.Token,
		Notification: &messaging.Notification{
			Title: c.Push.Title,
			Body:  c.Push.Body,
		},
		Data: map[string]string{
			"type":        c.Type.String(),
			"appointment": string(c.Push.Data),
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: c.Push.Title,
				Body:  c.Push.Body,
				Icon:  c.Push.Icon,
			},
		},
	}

	id, err := s.client.Send(ctx, msg)
	if err != nil {
		if messaging.IsUnregistered(err) || messaging.IsSenderIDMismatch(err) {
			s.log.Info("fcm token no longer registered", zap.Int64("user_id", to.ID))
			return fmt.Errorf("fcm: %w", notification.ErrSubscriptionExpired)
		}
		s.log.Warn("fcm send", zap.Int64("user_id", to.ID), zap.Error(err))
		return fmt.Errorf("fcm: %w", err)
	}
	s.log.Debug("fcm sent", zap.Int64("user_id", to.ID), zap.String("message_id", id))
	return nil
}

func permanentFCM(err error) bool {
	return permanentPush(err) || messaging.IsInvalidArgument(err)
}
