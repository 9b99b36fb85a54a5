package notifier

import (
	"testing"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/domain/user"
	"github.com/stretchr/testify/assert"
)

func TestResolveChannels(t *testing.T) {
	tests := []struct {
		name string
		u    *user.User
		want []notification.Channel
	}{
		{"nil user", nil, []notification.Channel{}},
		{"nothing enabled", &user.User{PushSubscription: webSub()}, []notification.Channel{}},
		{"email only", &user.User{EmailNotificationsEnabled: true}, []notification.Channel{notification.ChannelEmail}},
		{"push without subscription", &user.User{PushNotificationsEnabled: true}, []notification.Channel{}},
		{
			"push with invalid subscription",
			&user.User{PushNotificationsEnabled: true, PushSubscription: &user.PushSubscription{Endpoint: "http://insecure"}},
			[]notification.Channel{},
		},
		{
			"push with fcm token",
			&user.User{PushNotificationsEnabled: true, PushSubscription: &user.PushSubscription{Token: "tok"}},
			[]notification.Channel{notification.ChannelPush},
		},
		{
			"both",
			&user.User{EmailNotificationsEnabled: true, PushNotificationsEnabled: true, PushSubscription: webSub()},
			[]notification.Channel{notification.ChannelEmail, notification.ChannelPush},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveChannels(tt.u)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypeFor(t *testing.T) {
	tests := []struct {
		kind   appointment.EventKind
		status appointment.Status
		want   notification.Type
	}{
		{appointment.EventCreated, appointment.StatusScheduled, notification.TypeConfirmation},
		{appointment.EventCreated, appointment.StatusCancelled, notification.TypeConfirmation},
		{appointment.EventUpdated, appointment.StatusCancelled, notification.TypeCancellation},
		{appointment.EventUpdated, appointment.StatusPast, notification.TypeFeedback},
		{appointment.EventUpdated, appointment.StatusConfirmed, notification.TypeUpdate},
		{appointment.EventUpdated, appointment.StatusScheduled, notification.TypeUpdate},
		{appointment.EventUpdated, appointment.Status("Rescheduled"), notification.TypeUpdate},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+string(tt.status), func(t *testing.T) {
			got := TypeFor(tt.kind, tt.status)
			assert.True(t, got.Valid())
			assert.Equal(t, tt.want, got)
		})
	}
}
