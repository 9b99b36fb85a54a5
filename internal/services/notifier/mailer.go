package notifier

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/textproto"
	"time"

	config "github.com/NordCoder/Barberus/internal/config/notifier"
	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/domain/user"
	"github.com/NordCoder/Barberus/internal/obs"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	dialer mailDialer
	addr   string
	from   string

	log *zap.Logger
}

var _ notification.Sender = (*Mailer)(nil)

func NewMailer(cfg config.SMTP) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if cfg.UseTLS {
		d.SSL = true
	}
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return &Mailer{
		dialer: d,
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:   cfg.From,
		log:    obs.Component(nil, "notifier.mailer"),
	}
}

func (m *Mailer) WithLogger(l *zap.Logger) *Mailer {
	if l == nil {
		return m
	}
	cp := *m
	cp.log = obs.Component(l, "notifier.mailer")
	return &cp
}

func (m *Mailer) Channel() notification.Channel { return notification.ChannelEmail }

// Send delivers the rendered HTML email. The SMTP dial itself is not
// cancellable, so ctx is only checked before dialing.
func (m *Mailer) Send(ctx context.Context, to *user.User, c *notification.Content) error {
	if to == nil || to.Email == "" {
		return errors.New("recipient has no email address")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to.Email)
	msg.SetHeader("Subject", c.Email.Subject)
	msg.SetBody("text/html", c.Email.HTML)

	start := time.Now()
	log := m.log.With(
		zap.String("smtp_addr", m.addr),
		zap.String("to", to.Email),
		zap.String("subject", c.Email.Subject),
	)

	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Error("sendmail failed", zap.Error(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Debug("email sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// permanentSMTP reports 5xx replies, which a retry cannot fix.
func permanentSMTP(err error) bool {
	var tpErr *textproto.Error
	return errors.As(err, &tpErr) && tpErr.Code >= 500
}
