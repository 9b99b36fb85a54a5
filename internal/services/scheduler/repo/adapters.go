package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/NordCoder/Barberus/internal/domain/outbox"
)

type Appointments struct{ R appointment.Repo }

// Events stores lifecycle events in the outbox, keyed by event id.
type Events struct{ R outbox.Repository }

func (a Appointments) MarkPastDue(ctx context.Context, now time.Time, limit int) ([]*appointment.Appointment, error) {
	return a.R.MarkPastDue(ctx, now, limit)
}

func (e Events) EnqueueLifecycle(ctx context.Context, ev *appointment.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return e.R.Enqueue(ctx, ev.ID, outbox.KindAppointmentLifecycle, data)
}
