package kafka

import (
	"context"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/NordCoder/Barberus/internal/domain/kafka"
)

type LifecycleEventsKafka struct {
	p *Producer
}

func NewLifecycleEventsKafka(p *Producer) *LifecycleEventsKafka { return &LifecycleEventsKafka{p: p} }

var _ kafka.LifecycleEvents = (*LifecycleEventsKafka)(nil)

// PublishLifecycle keys by appointment so events for one appointment stay ordered.
func (e *LifecycleEventsKafka) PublishLifecycle(ctx context.Context, ev *appointment.Event) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(ev.AppointmentID), ev)
}
