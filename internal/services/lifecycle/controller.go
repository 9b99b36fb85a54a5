package lifecycle

import (
	"context"
	"errors"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	kafkax "github.com/NordCoder/Barberus/internal/repository/kafka"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Controller struct {
	Log      *zap.Logger
	Sub      *kafkax.Consumer
	UC       *Handler
	Validate *validator.Validate
}

func (c *Controller) Run(ctx context.Context) error {
	handler := kafkax.JSONHandler(c.Validate, func(ctx context.Context, _ []byte, ev *appointment.Event) error {
		return c.UC.HandleEvent(ctx, ev)
	})

	if err := c.Sub.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		c.Log.Warn("kafka consume", zap.Error(err))
		return err
	}
	return ctx.Err()
}
