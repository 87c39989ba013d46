package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers; the data
// directory checker is the only hard dependency of this service today.
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker folds component checkers into the single flag the
// /api/health endpoint reports.
type ServiceHealthChecker struct {
	healthy    atomic.Int32
	components []HealthChecker
	log        zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, components ...HealthChecker) *ServiceHealthChecker {
	h := &ServiceHealthChecker{components: components, log: log}
	h.healthy.Store(0)
	return h
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() == 1 }

// Start re-evaluates component health on every tick until ctx is canceled,
// logging only on transitions.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := int32(0)
	eval := func() {
		up := int32(1)
		for _, c := range h.components {
			if !c.IsHealthy() {
				h.log.Warn().Str("component", c.Name()).Msg("component unhealthy")
				up = 0
			}
		}
		h.healthy.Store(up)
		if up != prev {
			if up == 1 {
				h.log.Info().Msg("service health: UP")
			} else {
				h.log.Error().Msg("service health: DOWN")
			}
			prev = up
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
