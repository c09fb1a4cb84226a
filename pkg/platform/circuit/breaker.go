// Package circuit tracks consecutive failures of a dependency so callers can
// skip a dead path and report degraded mode and recovery.
package circuit

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// StateChange reports a transition caused by the last recorded outcome.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker opens after failureThreshold consecutive failures. While open it
// refuses calls until the cooldown passes, then admits one trial call at a
// time (half-open). successThreshold consecutive trial successes close it;
// a trial failure opens it again for another cooldown.
type Breaker struct {
	name string
	now  func() time.Time

	mu               sync.Mutex
	state            State
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	retryAt          time.Time
	trialInFlight    bool
}

type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithCooldown sets how long an open circuit refuses calls before a trial.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		now:              time.Now,
		failureThreshold: 5,
		successThreshold: 3,
		cooldown:         30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Degraded reports whether the circuit has not yet recovered.
func (b *Breaker) Degraded() bool {
	return b.State() != StateClosed
}

// Allow reports whether a call may go through now. A caller that is allowed
// must report the outcome with RecordFailure or RecordSuccess. A trial that
// never reports is abandoned after one cooldown.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if now.Before(b.retryAt) {
			return false
		}
		b.state = StateHalfOpen
		b.successCount = 0
	case StateHalfOpen:
		if b.trialInFlight && now.Before(b.retryAt) {
			return false
		}
	}
	b.trialInFlight = true
	b.retryAt = now.Add(b.cooldown)
	return true
}

// RecordFailure returns whether the circuit is open after this failure.
func (b *Breaker) RecordFailure() (bool, StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount++
	b.successCount = 0
	switch b.state {
	case StateOpen:
		return true, StateChange{}
	case StateHalfOpen:
		b.open()
		return true, StateChange{}
	}
	if b.failureCount >= b.failureThreshold {
		b.open()
		return true, StateChange{Opened: true}
	}
	return false, StateChange{}
}

// RecordSuccess returns whether the circuit is closed after this success.
// Late successes of calls admitted before the circuit opened do not count
// toward recovery.
func (b *Breaker) RecordSuccess() (bool, StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		return false, StateChange{}
	case StateHalfOpen:
		b.trialInFlight = false
		b.successCount++
		if b.successCount < b.successThreshold {
			return false, StateChange{}
		}
		b.state = StateClosed
		b.failureCount = 0
		b.successCount = 0
		return true, StateChange{Closed: true}
	}
	b.failureCount = 0
	return true, StateChange{}
}

func (b *Breaker) open() {
	b.state = StateOpen
	b.trialInFlight = false
	b.retryAt = b.now().Add(b.cooldown)
}
