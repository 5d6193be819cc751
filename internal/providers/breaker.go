package providers

import (
	"errors"
	"fmt"
	"time"

	"github.com/helioslend/helios/internal/circuitbreaker"
)

// ErrCircuitOpen is returned when a provider's circuit breaker has tripped
// and calls are shed instead of sent upstream.
var ErrCircuitOpen = errors.New("provider circuit open")

// guard wraps a live provider's calls with a circuit breaker. Five
// consecutive failures trip the circuit; after 30s one probe is allowed.
type guard struct {
	key     string
	breaker *circuitbreaker.Breaker
}

func newGuard(key string) guard {
	return guard{key: key, breaker: circuitbreaker.New(5, 30*time.Second)}
}

func (g guard) do(fn func() error) error {
	if !g.breaker.Allow(g.key) {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, g.key)
	}
	if err := fn(); err != nil {
		g.breaker.RecordFailure(g.key)
		return err
	}
	g.breaker.RecordSuccess(g.key)
	return nil
}
