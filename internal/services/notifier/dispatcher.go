package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/domain/user"
	"github.com/NordCoder/Barberus/internal/obs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultSendTimeout = 10 * time.Second

var (
	dispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_dispatches_total",
		Help: "Dispatches by notification type and result",
	}, []string{"type", "result"})
	sendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_channel_sends_total",
		Help: "Channel sends by channel and result",
	}, []string{"channel", "result"})
	sendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notifier_send_duration_seconds",
		Help:    "Time spent in one channel send",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
)

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type Dispatcher struct {
	users   UserReader
	render  *Renderer
	senders map[notification.Channel]notification.Sender
	timeout time.Duration
	log     *zap.Logger
}

func NewDispatcher(users UserReader, r *Renderer, timeout time.Duration, log *zap.Logger, senders ...notification.Sender) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	if log == nil {
		log = zap.L()
	}
	m := make(map[notification.Channel]notification.Sender, len(senders))
	for _, s := range senders {
		if s != nil {
			m[s.Channel()] = s
		}
	}
	return &Dispatcher{
		users:   users,
		render:  r,
		senders: m,
		timeout: timeout,
		log:     obs.Component(log, "notifier.dispatcher"),
	}
}

// Dispatch notifies userID about a transition on every channel they enabled.
// Channel failures are reported in the outcomes, never as the returned error.
// Cancelling ctx stops the wait only; sends already started run to completion.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	userID int64,
	t notification.Type,
	a *appointment.Appointment,
	b *appointment.Barber,
	s *appointment.Service,
) ([]notification.Outcome, error) {
	ctx, span := otel.Tracer("notifier").Start(ctx, "notifier.dispatch", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.String("notification.type", t.String()),
	))
	defer span.End()

	if !t.Valid() {
		err := fmt.Errorf("dispatch: %w: %s", notification.ErrUnknownType, t)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	u, err := d.users.GetByID(ctx, userID)
	if err == nil && u == nil {
		err = notification.ErrRecipientNotFound
	}
	if err != nil {
		dispatchesTotal.WithLabelValues(t.String(), "lookup_error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("get recipient %d: %w", userID, err)
	}

	channels := ResolveChannels(u)
	if len(channels) == 0 {
		dispatchesTotal.WithLabelValues(t.String(), "no_channels").Inc()
		return []notification.Outcome{}, nil
	}

	content, err := d.render.Render(t, a, b, s)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	results := make(chan notification.Outcome, len(channels))
	for _, ch := range channels {
		go d.send(ctx, ch, u, content, results)
	}

	got := make(map[notification.Channel]notification.Outcome, len(channels))
	for len(got) < len(channels) {
		select {
		case o := <-results:
			got[o.Channel] = o
		case <-ctx.Done():
			for _, ch := range channels {
				if _, ok := got[ch]; !ok {
					got[ch] = failed(ch, ctx.Err())
				}
			}
		}
	}

	out := make([]notification.Outcome, 0, len(channels))
	result := "ok"
	for _, ch := range channels {
		o := got[ch]
		if ch == notification.ChannelPush {
			o.Subscription = u.PushSubscription
		}
		if !o.Succeeded {
			result = "partial"
		}
		out = append(out, o)
	}
	dispatchesTotal.WithLabelValues(t.String(), result).Inc()
	return out, nil
}

// send reports exactly one outcome on out. The send is detached from the
// caller's cancellation and bounded by the dispatcher timeout.
func (d *Dispatcher) send(ctx context.Context, ch notification.Channel, u *user.User, c *notification.Content, out chan<- notification.Outcome) {
	log := obs.WithTrace(ctx, d.log).With(
		zap.String("channel", string(ch)),
		zap.Int64("user_id", u.ID),
		zap.String("type", c.Type.String()),
	)

	sender, ok := d.senders[ch]
	if !ok {
		log.Error("no sender for enabled channel")
		sendsTotal.WithLabelValues(string(ch), "error").Inc()
		out <- failed(ch, notification.ErrSenderNotConfigured)
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	sendCtx, span := otel.Tracer("notifier").Start(sendCtx, "notifier.send "+string(ch))
	defer span.End()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- invoke(sendCtx, sender, u, c) }()

	var err error
	select {
	case err = <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) && sendCtx.Err() != nil {
			err = fmt.Errorf("%w after %s: %w", notification.ErrSendTimeout, d.timeout, err)
		}
	case <-sendCtx.Done():
		err = fmt.Errorf("%w after %s", notification.ErrSendTimeout, d.timeout)
	}
	sendDuration.WithLabelValues(string(ch)).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		sendsTotal.WithLabelValues(string(ch), "error").Inc()
		log.Warn("send failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		out <- failed(ch, err)
		return
	}
	sendsTotal.WithLabelValues(string(ch), "ok").Inc()
	log.Info("sent", zap.Duration("elapsed", time.Since(start)))
	out <- notification.Outcome{Channel: ch, Succeeded: true}
}

func invoke(ctx context.Context, s notification.Sender, u *user.User, c *notification.Content) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panic: %v", r)
		}
	}()
	return s.Send(ctx, u, c)
}

func failed(ch notification.Channel, err error) notification.Outcome {
	return notification.Outcome{
		Channel: ch,
		Err:     &notification.ChannelError{Channel: ch, Err: err},
	}
}
