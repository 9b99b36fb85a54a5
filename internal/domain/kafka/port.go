package kafka

import (
	"context"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
)

type LifecycleEvents interface {
	PublishLifecycle(ctx context.Context, ev *appointment.Event) error
}
