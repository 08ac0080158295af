package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/surveyqr/internal/adapter/metrics"
)

// CircuitBreakerHook fails Redis calls fast once the store keeps failing,
// instead of letting every request wait for its own timeout.
// No fallback values are served while the circuit is open.
type CircuitBreakerHook struct {
	cb circuitbreaker.CircuitBreaker[any]
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

// CircuitBreakerSettings tunes when the circuit opens and how long it stays open.
type CircuitBreakerSettings struct {
	FailureThreshold uint
	Window           uint
	Delay            time.Duration
}

// DefaultCircuitBreakerSettings opens after 3 failures within the last 5
// calls and probes again after 10s.
var DefaultCircuitBreakerSettings = CircuitBreakerSettings{
	FailureThreshold: 3,
	Window:           5,
	Delay:            10 * time.Second,
}

// NewCircuitBreakerHook builds the hook. m may be nil.
func NewCircuitBreakerHook(settings CircuitBreakerSettings, m *metrics.RedisMetrics) *CircuitBreakerHook {
	cb := circuitbreaker.NewBuilder[any]().
		WithFailureThresholdRatio(settings.FailureThreshold, settings.Window).
		WithDelay(settings.Delay).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "redis",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			if m != nil {
				m.CircuitBreakerState.Set(stateToFloat(e.NewState))
			}
		}).
		Build()

	return &CircuitBreakerHook{cb: cb}
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// isFailure reports whether err says something about the health of the store.
// Cache misses, script cache misses and caller cancellations do not.
func isFailure(err error) bool {
	if err == nil || errors.Is(err, goredis.Nil) || errors.Is(err, context.Canceled) {
		return false
	}
	return !strings.HasPrefix(err.Error(), "NOSCRIPT")
}

func (h *CircuitBreakerHook) record(err error) {
	if isFailure(err) {
		h.cb.RecordError(err)
		return
	}
	h.cb.RecordSuccess()
}

// DialHook passes dials through. A failed dial surfaces as the error of the
// command that needed the connection and is recorded there, under the permit
// that command already holds.
func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return next
}

func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		if !h.cb.TryAcquirePermit() {
			err := fmt.Errorf("redis circuit breaker open: %w", circuitbreaker.ErrOpen)
			cmd.SetErr(err)
			return err
		}
		err := next(ctx, cmd)
		h.record(err)
		return err
	}
}

func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		if !h.cb.TryAcquirePermit() {
			err := fmt.Errorf("redis circuit breaker open: %w", circuitbreaker.ErrOpen)
			for _, cmd := range cmds {
				cmd.SetErr(err)
			}
			return err
		}
		err := next(ctx, cmds)
		h.record(err)
		return err
	}
}

// State returns the current circuit state.
func (h *CircuitBreakerHook) State() circuitbreaker.State {
	return h.cb.State()
}
