package oracle

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the breaker is open and rejects calls to
// prevent hammering a failing model backend.
var ErrCircuitOpen = errors.New("oracle circuit breaker is open")

// BreakerConfig holds the circuit breaker tuning knobs.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that trips the
	// circuit. Default 3.
	MaxFailures uint32

	// Timeout is how long the circuit stays open before allowing probe
	// requests. Default 30 seconds.
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of consecutive probe successes
	// needed to close the circuit again. Default 2.
	HalfOpenMaxSuccesses uint32
}

// BreakerMetrics holds counters accumulated across calls.
type BreakerMetrics struct {
	TotalRequests        uint64
	TotalSuccesses       uint64
	TotalFailures        uint64
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Breaker wraps gobreaker around oracle calls. A model backend that starts
// timing out trips the circuit after MaxFailures consecutive failures; while
// open every call fails fast with ErrCircuitOpen and the pipeline's
// stage-local defaults take over.
type Breaker struct {
	name    string
	breaker *gobreaker.CircuitBreaker
	mu      sync.RWMutex
	metrics BreakerMetrics
}

// NewBreaker creates a breaker with default configuration, named for the
// backend it protects so state transitions are attributable in logs.
func NewBreaker(name string) *Breaker {
	return NewBreakerWithConfig(name, BreakerConfig{
		MaxFailures:          3,
		Timeout:              30 * time.Second,
		HalfOpenMaxSuccesses: 2,
	})
}

// NewBreakerWithConfig creates a breaker with custom configuration.
func NewBreakerWithConfig(name string, config BreakerConfig) *Breaker {
	b := &Breaker{name: name}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: config.HalfOpenMaxSuccesses,
		Interval:    0, // Counts are never cleared periodically.
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("oracle: %s circuit %s -> %s", name, from, to)
		},
	}

	b.breaker = gobreaker.NewCircuitBreaker(settings)
	return b
}

// Execute runs fn through the breaker. If the circuit is open it returns
// ErrCircuitOpen without invoking fn. A cancelled context counts as a
// failure.
func (b *Breaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	select {
	case <-ctx.Done():
		b.recordFailure()
		return nil, ctx.Err()
	default:
	}

	result, err := b.breaker.Execute(func() (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return fn()
	})

	if err != nil {
		b.recordFailure()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}

	b.recordSuccess()
	return result, nil
}

// State returns "closed", "open", or "half-open".
func (b *Breaker) State() string {
	switch b.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Metrics returns the accumulated call counters.
func (b *Breaker) Metrics() BreakerMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := b.breaker.Counts()
	return BreakerMetrics{
		TotalRequests:        b.metrics.TotalRequests,
		TotalSuccesses:       b.metrics.TotalSuccesses,
		TotalFailures:        b.metrics.TotalFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics.TotalRequests++
	b.metrics.TotalSuccesses++
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics.TotalRequests++
	b.metrics.TotalFailures++
}
