package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	}, Policy{Name: "test_ok", Attempts: 5, Backoff: ExpoJitter{Base: time.Millisecond}})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("gone")
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return permanent
	}, SendPolicy("test_perm", 5, time.Millisecond, func(err error) bool { return errors.Is(err, permanent) }, nil))

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_PermanentMarkerOverridesPolicy(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return Permanent(errFlaky)
	}, Policy{Name: "test_marker", Attempts: 4, Backoff: ExpoJitter{Base: time.Millisecond}})

	assert.ErrorIs(t, err, errFlaky)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
	assert.False(t, IsPermanent(errFlaky))
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	var exhausted error
	err := Do(context.Background(), func() error {
		calls++
		return errFlaky
	}, Policy{
		Name:      "test_exhaust",
		Attempts:  3,
		Backoff:   ExpoJitter{Base: time.Millisecond},
		OnExhaust: func(err error) { exhausted = err },
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.ErrorIs(t, exhausted, errFlaky)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func() error {
		calls++
		cancel()
		return errFlaky
	}, Policy{Name: "test_cancel", Attempts: 5, Backoff: ExpoJitter{Base: time.Hour}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExpoJitter_Caps(t *testing.T) {
	b := ExpoJitter{Base: time.Second, Max: 4 * time.Second}
	assert.Equal(t, time.Second, b.Next(0))
	assert.Equal(t, 2*time.Second, b.Next(1))
	assert.Equal(t, 4*time.Second, b.Next(5))
	assert.Equal(t, time.Second, b.Next(-3))
}
