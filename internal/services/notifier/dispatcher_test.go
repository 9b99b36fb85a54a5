package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDispatcher(users UserReader, timeout time.Duration, senders ...notification.Sender) *Dispatcher {
	return NewDispatcher(users, testRenderer(), timeout, zap.NewNop(), senders...)
}

func TestDispatch_BothChannelsConfirmation(t *testing.T) {
	email := &fakeSender{ch: notification.ChannelEmail}
	push := &fakeSender{ch: notification.ChannelPush}
	users := &fakeUsers{users: map[int64]*user.User{
		7: {ID: 7, Email: "jane@example.com", EmailNotificationsEnabled: true, PushNotificationsEnabled: true, PushSubscription: webSub()},
	}}
	d := newTestDispatcher(users, time.Second, push, email)
	a, b, s := sampleAppointment()

	out, err := d.Dispatch(context.Background(), 7, notification.TypeConfirmation, a, b, s)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, notification.ChannelEmail, out[0].Channel)
	assert.Equal(t, notification.ChannelPush, out[1].Channel)
	assert.True(t, out[0].Succeeded)
	assert.True(t, out[1].Succeeded)
	assert.Nil(t, out[0].Subscription)
	require.NotNil(t, out[1].Subscription)
	assert.Equal(t, webSub().Endpoint, out[1].Subscription.Endpoint)

	require.Equal(t, 1, email.count())
	require.Equal(t, 1, push.count())
	assert.Equal(t, "Appointment Confirmation", email.last().Email.Subject)
	assert.Equal(t, "Appointment confirmation", push.last().Push.Title)
}

func TestDispatch_NoChannels(t *testing.T) {
	email := &fakeSender{ch: notification.ChannelEmail}
	push := &fakeSender{ch: notification.ChannelPush}
	users := &fakeUsers{users: map[int64]*user.User{7: {ID: 7, PushSubscription: webSub()}}}
	d := newTestDispatcher(users, time.Second, email, push)
	a, b, s := sampleAppointment()

	out, err := d.Dispatch(context.Background(), 7, notification.TypeUpdate, a, b, s)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Zero(t, email.count())
	assert.Zero(t, push.count())
}

func TestDispatch_PushEnabledWithoutSubscription(t *testing.T) {
	email := &fakeSender{ch: notification.ChannelEmail}
	push := &fakeSender{ch: notification.ChannelPush}
	users := &fakeUsers{users: map[int64]*user.User{
		7: {ID: 7, Email: "jane@example.com", EmailNotificationsEnabled: true, PushNotificationsEnabled: true},
	}}
	d := newTestDispatcher(users, time.Second, email, push)
	a, b, s := sampleAppointment()

	out, err := d.Dispatch(context.Background(), 7, notification.TypeUpdate, a, b, s)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, notification.ChannelEmail, out[0].Channel)
	assert.Zero(t, push.count())
}

func TestDispatch_PartialFailure(t *testing.T) {
	boom := errors.New("smtp down")
	email := &fakeSender{ch: notification.ChannelEmail, err: boom}
	push := &fakeSender{ch: notification.ChannelPush}
	users := &fakeUsers{users: map[int64]*user.User{
		7: {ID: 7, Email: "jane@example.com", EmailNotificationsEnabled: true, PushNotificationsEnabled: true, PushSubscription: webSub()},
	}}
	d := newTestDispatcher(users, time.Second, email, push)
	a, b, s := sampleAppointment()

	out, err := d.Dispatch(context.Background(), 7, notification.TypeCancellation, a, b, s)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.False(t, out[0].Succeeded)
	require.ErrorIs(t, out[0].Err, boom)
	var ce *notification.ChannelError
	require.ErrorAs(t, out[0].Err, &ce)
	assert.Equal(t, notification.ChannelEmail, ce.Channel)
	assert.Contains(t, out[0].Detail(), "smtp down")

	assert.True(t, out[1].Succeeded)
	assert.Empty(t, out[1].Detail())
}

func TestDispatch_CancellationEmailOnly(t *testing.T) {
	email := &fakeSender{ch: notification.ChannelEmail}
	users := &fakeUsers{users: map[int64]*user.User{
		7: {ID: 7, Email: "jane@example.com", EmailNotificationsEnabled: true},
	}}
	d := newTestDispatcher(users, time.Second, email)
	a, b, s := sampleAppointment()

	out, err := d.Dispatch(context.Background(), 7, notification.TypeCancellation, a, b, s)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, notification.ChannelEmail, out[0].Channel)
	assert.True(t, out[0].Succeeded)

	html := email.last().Email.HTML
	assert.Contains(t, html, "We hope to see you soon for a rescheduled appointment.")
	assert.NotContains(t, html, "<a ")
}

func TestDispatch_RecipientNotFound(t *testing.T) {
	email := &fakeSender{ch: notification.ChannelEmail}
	push := &fakeSender{ch: notification.ChannelPush}
	d := newTestDispatcher(&fakeUsers{}, time.Second, email, push)
	a, b, s := sampleAppointment()

	out, err := d.Dispatch(context.Background(), 99, notification.TypeConfirmation, a, b, s)
	require.ErrorIs(t, err, notification.ErrRecipientNotFound)
	assert.Nil(t, out)
	assert.Zero(t, email.count())
	assert.Zero(t, push.count())
}

func TestDispatch_LookupErrorIsFatal(t *testing.T) {
	boom := errors.New("db down")
	email := &fakeSender{ch: notification.ChannelEmail}
	d := newTestDispatcher(&fakeUsers{err: boom}, time.Second, email)
	a, b, s := sampleAppointment()

	_, err := d.Dispatch(context.Background(), 7, notification.TypeConfirmation, a, b, s)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, email.count())
}

func TestDispatch_UnknownType(t *testing.T) {
	email := &fakeSender{ch: notification.ChannelEmail}
	users := &fakeUsers{users: map[int64]*user.User{7: {ID: 7, EmailNotificationsEnabled: true}}}
	d := newTestDispatcher(users, time.Second, email)
	a, b, s := sampleAppointment()

	_, err := d.Dispatch(context.Background(), 7, notification.Type(9), a, b, s)
	require.ErrorIs(t, err, notification.ErrUnknownType)
	assert.Zero(t, email.count())
}

func TestDispatch_SendTimeout(t *testing.T) {
	email := &fakeSender{ch: notification.ChannelEmail, delay: time.Second}
	push := &fakeSender{ch: notification.ChannelPush}
	users := &fakeUsers{users: map[int64]*user.User{
		7: {ID: 7, EmailNotificationsEnabled: true, PushNotificationsEnabled: true, PushSubscription: webSub()},
	}}
	d := newTestDispatcher(users, 30*time.Millisecond, email, push)
	a, b, s := sampleAppointment()

	start := time.Now()
	out, err := d.Dispatch(context.Background(), 7, notification.TypeUpdate, a, b, s)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	require.Len(t, out, 2)
	assert.False(t, out[0].Succeeded)
	assert.ErrorIs(t, out[0].Err, notification.ErrSendTimeout)
	assert.True(t, out[1].Succeeded)
}

func TestDispatch_CallerCancelStopsWaitOnly(t *testing.T) {
	email := &fakeSender{ch: notification.ChannelEmail, delay: 200 * time.Millisecond}
	users := &fakeUsers{users: map[int64]*user.User{7: {ID: 7, EmailNotificationsEnabled: true}}}
	d := newTestDispatcher(users, time.Second, email)
	a, b, s := sampleAppointment()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	out, err := d.Dispatch(ctx, 7, notification.TypeUpdate, a, b, s)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].Succeeded)
	assert.ErrorIs(t, out[0].Err, context.Canceled)

	// the send itself was detached from the caller's cancellation
	require.Equal(t, 1, email.count())
	email.mu.Lock()
	sendCtx := email.ctxs[0]
	email.mu.Unlock()
	assert.NoError(t, sendCtx.Err())
}

func TestDispatch_MissingSender(t *testing.T) {
	users := &fakeUsers{users: map[int64]*user.User{
		7: {ID: 7, EmailNotificationsEnabled: true, PushNotificationsEnabled: true, PushSubscription: webSub()},
	}}
	email := &fakeSender{ch: notification.ChannelEmail}
	d := newTestDispatcher(users, time.Second, email)
	a, b, s := sampleAppointment()

	out, err := d.Dispatch(context.Background(), 7, notification.TypeUpdate, a, b, s)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].Succeeded)
	assert.False(t, out[1].Succeeded)
	assert.ErrorIs(t, out[1].Err, notification.ErrSenderNotConfigured)
}

type panicSender struct{}

func (panicSender) Channel() notification.Channel { return notification.ChannelPush }
func (panicSender) Send(context.Context, *user.User, *notification.Content) error {
	panic("boom")
}

func TestDispatch_SenderPanicIsChannelFailure(t *testing.T) {
	users := &fakeUsers{users: map[int64]*user.User{
		7: {ID: 7, PushNotificationsEnabled: true, PushSubscription: webSub()},
	}}
	d := newTestDispatcher(users, time.Second, panicSender{})
	a, b, s := sampleAppointment()

	out, err := d.Dispatch(context.Background(), 7, notification.TypeUpdate, a, b, s)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].Succeeded)
	assert.Contains(t, out[0].Detail(), "panic")
}
