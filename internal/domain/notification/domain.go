package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Barberus/internal/domain/user"
)

var (
	ErrUnknownType         = errors.New("unknown notification type")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrInvalidSubscription = errors.New("invalid push subscription")
	ErrSubscriptionExpired = errors.New("push subscription expired")
	ErrSenderNotConfigured = errors.New("sender not configured")
	ErrSendTimeout         = errors.New("send timed out")
)

// Type is what happened to the appointment, from the recipient's point of view.
type Type uint8

const (
	TypeConfirmation Type = iota
	TypeUpdate
	TypeCancellation
	TypeFeedback

	typeCount
)

var typeNames = [typeCount]string{
	TypeConfirmation: "confirmation",
	TypeUpdate:       "update",
	TypeCancellation: "cancellation",
	TypeFeedback:     "feedback",
}

// Types lists every notification type in declaration order.
func Types() []Type {
	out := make([]Type, 0, typeCount)
	for t := Type(0); t < typeCount; t++ {
		out = append(out, t)
	}
	return out
}

func (t Type) Valid() bool { return t < typeCount }

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("type(%d)", uint8(t))
	}
	return typeNames[t]
}

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

type EmailContent struct {
	Subject string
	HTML    string
}

type PushContent struct {
	Title string          `json:"title"`
	Body  string          `json:"body"`
	Icon  string          `json:"icon"`
	Data  json.RawMessage `json:"data"`
}

// Content holds both channel variants, rendered once per dispatch.
type Content struct {
	Type  Type
	Email EmailContent
	Push  PushContent
}

type ChannelError struct {
	Channel Channel
	Err     error
}

func (e *ChannelError) Error() string { return string(e.Channel) + ": " + e.Err.Error() }

func (e *ChannelError) Unwrap() error { return e.Err }

// Outcome is the result of one channel within a dispatch.
type Outcome struct {
	Channel   Channel
	Succeeded bool
	Err       error
	// Subscription is the push subscription the attempt used. Nil for email.
	Subscription *user.PushSubscription
}

func (o Outcome) Detail() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Notification is a persisted record of one channel attempt.
type Notification struct {
	ID            int64     `json:"id"`
	AppointmentID int64     `json:"appointment_id"`
	UserID        int64     `json:"user_id"`
	Channel       Channel   `json:"channel"`
	Type          string    `json:"type"`
	Succeeded     bool      `json:"succeeded"`
	Error         string    `json:"error,omitempty"`
	SentAt        time.Time `json:"sent_at"`
	Payload       string    `json:"payload"`
}

// Sender delivers rendered content over one channel.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, to *user.User, c *Content) error
}

type Clock interface {
	Now() time.Time
}
