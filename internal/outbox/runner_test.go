package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Barberus/internal/domain/appointment"
	"github.com/NordCoder/Barberus/internal/domain/outbox"
	"github.com/NordCoder/Barberus/internal/obs/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	mu      sync.Mutex
	batch   []outbox.Message
	pickErr error
	marked  []string
}

func (f *fakeRepo) Enqueue(context.Context, string, outbox.Kind, []byte) error { return nil }

func (f *fakeRepo) PickBatch(context.Context, int, time.Duration) ([]outbox.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.batch
	f.batch = nil
	return b, f.pickErr
}

func (f *fakeRepo) MarkSuccess(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, keys...)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	got  []*appointment.Event
	fail map[int64]bool
}

func (p *fakePublisher) PublishLifecycle(_ context.Context, ev *appointment.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[ev.AppointmentID] {
		return errors.New("broker down")
	}
	p.got = append(p.got, ev)
	return nil
}

func lifecycleMsg(t *testing.T, key string, apptID int64) outbox.Message {
	t.Helper()
	data, err := json.Marshal(appointment.Event{
		ID: key, Kind: appointment.EventUpdated, AppointmentID: apptID, Status: appointment.StatusPast,
	})
	require.NoError(t, err)
	return outbox.Message{IdempotencyKey: key, Kind: outbox.KindAppointmentLifecycle, Data: data}
}

func TestRunnerTick_MarksOnlyPublished(t *testing.T) {
	repo := &fakeRepo{batch: []outbox.Message{
		lifecycleMsg(t, "a", 1),
		lifecycleMsg(t, "b", 2),
		{IdempotencyKey: "c", Kind: outbox.Kind(99)},
	}}
	pub := &fakePublisher{fail: map[int64]bool{2: true}}
	pol := retry.Policy{Attempts: 2}

	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(pub, pol), 1, 10, time.Millisecond, time.Minute)
	r.tick(context.Background())

	assert.Equal(t, []string{"a"}, repo.marked)
	require.Len(t, pub.got, 1)
	assert.Equal(t, int64(1), pub.got[0].AppointmentID)
	assert.Equal(t, appointment.StatusPast, pub.got[0].Status)
}

func TestRunnerTick_DropsPoisonMessage(t *testing.T) {
	repo := &fakeRepo{batch: []outbox.Message{
		{IdempotencyKey: "bad", Kind: outbox.KindAppointmentLifecycle, Data: []byte("{")},
		lifecycleMsg(t, "ok", 3),
	}}
	pub := &fakePublisher{}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(pub, retry.Policy{Attempts: 3}), 1, 10, time.Millisecond, time.Minute)

	r.tick(context.Background())

	assert.Equal(t, []string{"bad", "ok"}, repo.marked)
	assert.Len(t, pub.got, 1)
}

func TestRunnerTick_PickError(t *testing.T) {
	repo := &fakeRepo{pickErr: errors.New("db down")}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(&fakePublisher{}, retry.Policy{}), 1, 10, time.Millisecond, time.Minute)

	r.tick(context.Background())
	assert.Empty(t, repo.marked)
}

func TestRunner_StopsOnCancel(t *testing.T) {
	repo := &fakeRepo{batch: []outbox.Message{lifecycleMsg(t, "a", 1)}}
	pub := &fakePublisher{}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(pub, retry.Policy{}), 2, 10, 5*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.marked) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() { r.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not stop")
	}
}

func TestGlobalHandler_BadPayload(t *testing.T) {
	h, err := MakeGlobalOutboxHandler(&fakePublisher{}, retry.Policy{Attempts: 1})(outbox.KindAppointmentLifecycle)
	require.NoError(t, err)
	err = h(context.Background(), []byte("nope"))
	require.ErrorContains(t, err, "unmarshal")
	assert.True(t, retry.IsPermanent(err))
}
