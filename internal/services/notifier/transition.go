package notifier

import (
	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/NordCoder/Barberus/internal/domain/notification"
)

// TypeFor maps a lifecycle transition to the notification it produces.
// Every (kind, status) pair yields exactly one type.
func TypeFor(kind appointment.EventKind, status appointment.Status) notification.Type {
	if kind == appointment.EventCreated {
		return notification.TypeConfirmation
	}
	switch status {
	case appointment.StatusCancelled:
		return notification.TypeCancellation
	case appointment.StatusPast:
		return notification.TypeFeedback
	default:
		return notification.TypeUpdate
	}
}
