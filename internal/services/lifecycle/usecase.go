package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/domain/user"
	"github.com/NordCoder/Barberus/internal/obs"
	"github.com/NordCoder/Barberus/internal/services/notifier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// ErrUndelivered means the recipient could only be reached by email and the
// email failed; the event should be redelivered.
var ErrUndelivered = errors.New("notification undelivered")

var (
	eventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_events_handled_total",
		Help: "Lifecycle events by resulting notification type and result",
	}, []string{"type", "result"})
	outcomesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_outcomes_total",
		Help: "Per-channel dispatch outcomes",
	}, []string{"channel", "succeeded"})
)

type AppointmentReader interface {
	GetDetails(ctx context.Context, id int64) (*appointment.Details, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, userID int64, t notification.Type,
		a *appointment.Appointment, b *appointment.Barber, s *appointment.Service) ([]notification.Outcome, error)
}

type HistoryStore interface {
	Create(ctx context.Context, n *notification.Notification) error
}

type SubscriptionPruner interface {
	PruneSubscription(ctx context.Context, userID int64, expired *user.PushSubscription) error
}

type Handler struct {
	Appointments AppointmentReader
	Dispatcher   Dispatcher
	History      HistoryStore
	Pruner       SubscriptionPruner
	Clock        notification.Clock
	RequireEmail bool
	Log          *zap.Logger
}

// HandleEvent turns one lifecycle event into notifications. The returned
// error decides redelivery: nil commits the event.
func (h *Handler) HandleEvent(ctx context.Context, ev *appointment.Event) error {
	log := obs.WithTrace(ctx, h.Log).With(
		zap.String("event_id", ev.ID),
		zap.String("kind", string(ev.Kind)),
		zap.Int64("appointment_id", ev.AppointmentID),
		zap.String("status", string(ev.Status)),
	)

	d, err := h.Appointments.GetDetails(ctx, ev.AppointmentID)
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			log.Warn("appointment gone; event dropped")
			eventsHandled.WithLabelValues("none", "appointment_not_found").Inc()
			return nil
		}
		return fmt.Errorf("get appointment %d: %w", ev.AppointmentID, err)
	}

	t := notifier.TypeFor(ev.Kind, ev.Status)
	snap := d.Appointment
	snap.Status = ev.Status

	outcomes, err := h.Dispatcher.Dispatch(ctx, snap.CustomerID, t, &snap, &d.Barber, &d.Service)
	if err != nil {
		if errors.Is(err, notification.ErrRecipientNotFound) {
			log.Warn("recipient not found; event dropped", zap.Int64("user_id", snap.CustomerID))
			eventsHandled.WithLabelValues(t.String(), "recipient_not_found").Inc()
			return nil
		}
		eventsHandled.WithLabelValues(t.String(), "error").Inc()
		return fmt.Errorf("dispatch %s: %w", t, err)
	}

	h.record(ctx, log, ev, snap.CustomerID, t, outcomes)

	if h.RequireEmail && len(outcomes) == 1 && outcomes[0].Channel == notification.ChannelEmail && !outcomes[0].Succeeded {
		eventsHandled.WithLabelValues(t.String(), "undelivered").Inc()
		log.Warn("email was the only channel and it failed", zap.Error(outcomes[0].Err))
		return fmt.Errorf("%w: %s", ErrUndelivered, outcomes[0].Detail())
	}

	eventsHandled.WithLabelValues(t.String(), "ok").Inc()
	log.Info("lifecycle event handled", zap.String("type", t.String()), zap.Int("channels", len(outcomes)))
	return nil
}

// record persists one history row per outcome and prunes push subscriptions
// the provider reported as expired. Failures here never fail the event.
func (h *Handler) record(ctx context.Context, log *zap.Logger, ev *appointment.Event, userID int64, t notification.Type, outcomes []notification.Outcome) {
	payload, _ := json.Marshal(ev)

	for _, o := range outcomes {
		outcomesRecorded.WithLabelValues(string(o.Channel), fmt.Sprint(o.Succeeded)).Inc()

		if o.Channel == notification.ChannelPush && errors.Is(o.Err, notification.ErrSubscriptionExpired) && h.Pruner != nil {
			if err := h.Pruner.PruneSubscription(ctx, userID, o.Subscription); err != nil {
				log.Warn("prune push subscription", zap.Int64("user_id", userID), zap.Error(err))
			}
		}

		if h.History == nil {
			continue
		}
		n := &notification.Notification{
			AppointmentID: ev.AppointmentID,
			UserID:        userID,
			Channel:       o.Channel,
			Type:          t.String(),
			Succeeded:     o.Succeeded,
			Error:         o.Detail(),
			SentAt:        h.Clock.Now().UTC(),
			Payload:       string(payload),
		}
		if err := h.History.Create(ctx, n); err != nil {
			log.Warn("store notification", zap.String("channel", string(o.Channel)), zap.Error(err))
		}
	}
}
