package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/homekeeper/household-api/internal/core/ports"
)

const defaultInterval = time.Hour

// Sweeper periodically purges expired token rows so the store does not grow
// unbounded between admin-triggered sweeps.
type Sweeper struct {
	auth     ports.AuthService
	interval time.Duration
	log      zerolog.Logger
}

// New creates a Sweeper running every interval. If interval <= 0,
// defaultInterval is used.
func New(auth ports.AuthService, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{auth: auth, interval: interval, log: log}
}

// Start launches the sweep loop. It stops when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := s.auth.SweepExpiredTokens(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("background token sweep failed")
				continue
			}
			if count > 0 {
				s.log.Info().Int64("removed", count).Msg("background token sweep")
			}
		}
	}
}
