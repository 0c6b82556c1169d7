package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerStaysClosedUnderThreshold(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		require.ErrorIs(t, b.Do(fail), errBoom)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerTripsAtThreshold(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3})

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, b.Do(fail), errBoom)
	}
	assert.Equal(t, StateOpen, b.State())

	var called bool
	err := b.Do(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called, "open breaker must not invoke fn")
}

func TestBreakerSuccessResetsCounter(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3})

	require.ErrorIs(t, b.Do(fail), errBoom)
	require.ErrorIs(t, b.Do(fail), errBoom)
	require.NoError(t, b.Do(succeed))
	require.ErrorIs(t, b.Do(fail), errBoom)
	require.ErrorIs(t, b.Do(fail), errBoom)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenAfterCooldown(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1, Cooldown: 10 * time.Millisecond})

	require.ErrorIs(t, b.Do(fail), errBoom)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreakerClosesOnHalfOpenSuccess(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1, Cooldown: 10 * time.Millisecond})

	require.ErrorIs(t, b.Do(fail), errBoom)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, b.Do(succeed))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 5, Cooldown: 10 * time.Millisecond})

	for i := 0; i < 5; i++ {
		require.ErrorIs(t, b.Do(fail), errBoom)
	}
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	// One probe failure reopens, regardless of the threshold.
	require.ErrorIs(t, b.Do(fail), errBoom)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerNotifiesStateChanges(t *testing.T) {
	type change struct{ from, to State }
	var changes []change

	b := New("test", Settings{
		FailureThreshold: 1,
		Cooldown:         10 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			assert.Equal(t, "test", name)
			changes = append(changes, change{from, to})
		},
	})

	require.ErrorIs(t, b.Do(fail), errBoom)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Do(succeed))

	assert.Equal(t, []change{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}, changes)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
}
