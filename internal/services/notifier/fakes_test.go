package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/NordCoder/Barberus/internal/domain/notification"
	"github.com/NordCoder/Barberus/internal/domain/user"
)

type fakeUsers struct {
	users map[int64]*user.User
	err   error
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, notification.ErrRecipientNotFound
	}
	return u, nil
}

type fakeSender struct {
	ch    notification.Channel
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls []*notification.Content
	ctxs  []context.Context
}

func (f *fakeSender) Channel() notification.Channel { return f.ch }

func (f *fakeSender) Send(ctx context.Context, _ *user.User, c *notification.Content) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.ctxs = append(f.ctxs, ctx)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSender) last() *notification.Content {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func webSub() *user.PushSubscription {
	return &user.PushSubscription{
		Endpoint: "https://push.example.com/send/abc",
		Keys:     user.PushKeys{P256dh: "p256", Auth: "auth"},
	}
}

func sampleAppointment() (*appointment.Appointment, *appointment.Barber, *appointment.Service) {
	a := &appointment.Appointment{
		ID:            41,
		CustomerID:    7,
		BarberID:      3,
		ServiceID:     2,
		FirstName:     "Jane",
		LastName:      "Doe",
		ContactNumber: "+1 555 0100",
		At:            time.Date(2026, time.March, 14, 15, 30, 0, 0, time.UTC),
		Status:        appointment.StatusScheduled,
	}
	return a, &appointment.Barber{ID: 3, FirstName: "Sam", LastName: "Cutter"}, &appointment.Service{ID: 2, Title: "Beard Trim"}
}

func testRenderer() *Renderer {
	return NewRenderer(RenderConfig{
		AppointmentsURL: "https://app.example.com/appointments",
		ReviewsURL:      "https://app.example.com/reviews",
	})
}
