package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrBreakerOpen = errors.New("breaker is open")

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker trips after a run of consecutive failures, rejects calls while
// open, and recovers through a limited number of half-open probes.
type Breaker struct {
	mu sync.Mutex

	failureThreshold int
	openFor          time.Duration
	probeBudget      int

	state        BreakerState
	failures     int
	trippedAt    time.Time
	probesActive int
	probesPassed int

	now func() time.Time
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	cfg = NormalizeBreakerConfig(cfg)
	return &Breaker{
		failureThreshold: cfg.FailureThreshold,
		openFor:          cfg.OpenTimeout,
		probeBudget:      cfg.HalfOpenProbes,
		state:            BreakerClosed,
		now:              time.Now,
	}
}

// Do runs fn under the breaker, recording the outcome. A rejected call
// returns ErrBreakerOpen without invoking fn.
func (b *Breaker) Do(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if b.now().Sub(b.trippedAt) < b.openFor {
			return ErrBreakerOpen
		}
		b.state = BreakerHalfOpen
		b.probesActive = 0
		b.probesPassed = 0
	}

	if b.state == BreakerHalfOpen {
		if b.probesActive >= b.probeBudget {
			return ErrBreakerOpen
		}
		b.probesActive++
	}

	return nil
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.failures = 0
	case BreakerHalfOpen:
		if b.probesActive > 0 {
			b.probesActive--
		}
		b.probesPassed++
		if b.probesPassed >= b.probeBudget && b.probesActive == 0 {
			b.state = BreakerClosed
			b.failures = 0
			b.trippedAt = time.Time{}
		}
	}
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	case BreakerHalfOpen:
		if b.probesActive > 0 {
			b.probesActive--
		}
		b.trip()
	case BreakerOpen:
		b.trippedAt = b.now()
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen && b.now().Sub(b.trippedAt) >= b.openFor {
		return BreakerHalfOpen
	}
	return b.state
}

func (b *Breaker) trip() {
	b.state = BreakerOpen
	b.trippedAt = b.now()
	b.probesActive = 0
	b.probesPassed = 0
}
