// Package resilience provides a circuit breaker for calls to external
// services. The inference client wraps every request in one so a dead
// service fails fast instead of stalling a whole batch run.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker rejects a request without trying it.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures breaker behavior. Zero values get defaults.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker. Default 5.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before allowing a
	// probe request. Default 30s.
	Cooldown time.Duration
	// OnStateChange is invoked on every transition.
	OnStateChange func(name string, from, to State)
}

// Breaker is a consecutive-failure circuit breaker. A single successful
// probe in half-open state closes it again.
type Breaker struct {
	name     string
	settings Settings

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// New creates a breaker with the given settings.
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{name: name, settings: settings, state: StateClosed}
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state, accounting for cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState(time.Now())
}

// Do runs fn if the breaker allows it and records the outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState(time.Now()) {
	case StateOpen:
		return ErrOpen
	default:
		return nil
	}
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state := b.currentState(now)

	if success {
		b.failures = 0
		if state != StateClosed {
			b.transition(state, StateClosed)
		}
		return
	}

	b.failures++
	if state == StateHalfOpen || b.failures >= b.settings.FailureThreshold {
		if state != StateOpen {
			b.transition(state, StateOpen)
		}
		b.openedAt = now
		b.state = StateOpen
	}
}

// currentState folds cooldown expiry into the stored state. Callers must
// hold the lock.
func (b *Breaker) currentState(now time.Time) State {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.settings.Cooldown {
		b.transition(StateOpen, StateHalfOpen)
		b.state = StateHalfOpen
	}
	return b.state
}

func (b *Breaker) transition(from, to State) {
	b.state = to
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
