package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type PastDueMarker interface {
	MarkPastDue(ctx context.Context, now time.Time, limit int) ([]*appointment.Appointment, error)
}

type EventQueue interface {
	EnqueueLifecycle(ctx context.Context, ev *appointment.Event) error
}

type Usecase struct {
	Tx     Transactor
	Repo   PastDueMarker
	Events EventQueue
	Now    func() time.Time
}

func NewUC(tx Transactor, repo PastDueMarker, events EventQueue) *Usecase {
	return &Usecase{Tx: tx, Repo: repo, Events: events, Now: func() time.Time { return time.Now().UTC() }}
}

// Tick marks up to limit elapsed appointments as Past and queues an updated
// event for each, in one transaction: either both happen or neither does.
func (u *Usecase) Tick(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	tr := otel.Tracer("scheduler.uc")
	ctxTick, span := tr.Start(ctx, "scheduler.tick",
		trace.WithAttributes(attribute.Int("batch.limit", limit)),
	)
	defer span.End()

	now := u.Now()
	marked := 0
	err := u.Tx.WithTx(ctxTick, func(ctx context.Context) error {
		due, err := u.Repo.MarkPastDue(ctx, now, limit)
		if err != nil {
			return fmt.Errorf("mark past due: %w", err)
		}
		for _, a := range due {
			ev := &appointment.Event{
				ID:            uuid.NewString(),
				Kind:          appointment.EventUpdated,
				AppointmentID: a.ID,
				Status:        appointment.StatusPast,
				At:            now,
			}
			if err := u.Events.EnqueueLifecycle(ctx, ev); err != nil {
				return fmt.Errorf("enqueue appointment %d: %w", a.ID, err)
			}
		}
		marked = len(due)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	span.SetAttributes(attribute.Int("batch.marked", marked))
	return marked, nil
}
