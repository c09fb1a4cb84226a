package circuit

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

const cooldown = 10 * time.Second

// replay feeds outcomes to b: 'f' is a failure, 's' a success and 'w' waits
// out the cooldown and takes the trial call. It returns the transitions seen,
// "O" for opened and "C" for closed.
func replay(t *testing.T, b *Breaker, c *clock, outcomes string) string {
	var transitions strings.Builder
	for _, o := range outcomes {
		var change StateChange
		switch o {
		case 'f':
			_, change = b.RecordFailure()
		case 's':
			_, change = b.RecordSuccess()
		case 'w':
			c.now = c.now.Add(cooldown)
			require.True(t, b.Allow(), "trial allowed after the cooldown")
		}
		if change.Opened {
			transitions.WriteString("O")
		}
		if change.Closed {
			transitions.WriteString("C")
		}
	}
	return transitions.String()
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name        string
		opts        []Option
		outcomes    string
		transitions string
		state       State
	}{
		{name: "starts closed", outcomes: "", state: StateClosed},
		{name: "defaults open on the fifth failure", outcomes: "ffff", state: StateClosed},
		{name: "fifth consecutive failure opens", outcomes: "fffff", transitions: "O", state: StateOpen},
		{name: "success resets the failure run", opts: []Option{WithFailureThreshold(3)}, outcomes: "ffsff", state: StateClosed},
		{name: "further failures while open report no change", opts: []Option{WithFailureThreshold(1)}, outcomes: "fff", transitions: "O", state: StateOpen},
		{name: "success while open does not count", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(1)}, outcomes: "fss", transitions: "O", state: StateOpen},
		{name: "trial moves to half-open", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, outcomes: "fws", transitions: "O", state: StateHalfOpen},
		{name: "closes after the success threshold", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, outcomes: "fwss", transitions: "OC", state: StateClosed},
		{name: "trial failure reopens", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(3)}, outcomes: "fwsf", transitions: "O", state: StateOpen},
		{name: "recovers then opens again", opts: []Option{WithFailureThreshold(2), WithSuccessThreshold(1)}, outcomes: "ffwsff", transitions: "OCO", state: StateOpen},
		{name: "non-positive thresholds keep defaults", opts: []Option{WithFailureThreshold(0), WithSuccessThreshold(-1)}, outcomes: "fffff", transitions: "O", state: StateOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &clock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
			opts := append([]Option{WithCooldown(cooldown), WithClock(c.Now)}, tt.opts...)
			b := New("eligibility", opts...)
			assert.Equal(t, tt.transitions, replay(t, b, c, tt.outcomes))
			assert.Equal(t, tt.state, b.State())
		})
	}
}

func TestBreakerRefusesCallsWhileOpen(t *testing.T) {
	c := &clock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	b := New("store", WithFailureThreshold(1), WithCooldown(cooldown), WithClock(c.Now))

	assert.True(t, b.Allow())
	open, _ := b.RecordFailure()
	require.True(t, open)
	assert.False(t, b.Allow())

	c.now = c.now.Add(cooldown - time.Nanosecond)
	assert.False(t, b.Allow(), "cooldown not yet over")

	c.now = c.now.Add(time.Nanosecond)
	assert.True(t, b.Allow())
	assert.Equal(t, "half_open", b.State().String())
	assert.False(t, b.Allow(), "one trial at a time")
	assert.True(t, b.Degraded())

	c.now = c.now.Add(cooldown)
	assert.True(t, b.Allow(), "an unreported trial is abandoned after the cooldown")
}

func TestBreakerReportsUsablePath(t *testing.T) {
	c := &clock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	b := New("store", WithFailureThreshold(1), WithSuccessThreshold(2), WithCooldown(cooldown), WithClock(c.Now))

	open, _ := b.RecordFailure()
	assert.True(t, open)
	assert.Equal(t, "open", b.State().String())

	c.now = c.now.Add(cooldown)
	require.True(t, b.Allow())
	closed, _ := b.RecordSuccess()
	assert.False(t, closed, "one success is not enough to close")

	require.True(t, b.Allow(), "a reported trial frees the next one")
	closed, _ = b.RecordSuccess()
	assert.True(t, closed)
	assert.Equal(t, "closed", b.State().String())
	assert.False(t, b.Degraded())
	assert.Equal(t, "store", b.Name())
}

func TestBreakerConcurrentFailures(t *testing.T) {
	b := New("remote", WithFailureThreshold(10))

	var wg sync.WaitGroup
	opened := make(chan struct{}, 50)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				opened <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(opened)

	require.True(t, b.IsOpen())
	assert.Len(t, opened, 1, "exactly one caller observes the transition")
}
