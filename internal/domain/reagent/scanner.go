package reagent

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Scanner periodically runs the alert scan in the background. Reads through
// the HTTP API stay side-effect free; this loop and the explicit refresh
// endpoint are the only alert dispatch paths.
type Scanner struct {
	svc      *Service
	interval time.Duration
	log      zerolog.Logger
}

func NewScanner(svc *Service, interval time.Duration, log zerolog.Logger) *Scanner {
	return &Scanner{svc: svc, interval: interval, log: log}
}

// Run blocks until ctx is cancelled. A zero or negative interval disables
// the scanner entirely.
func (s *Scanner) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info().Msg("alert scanner disabled")
		return
	}

	s.log.Info().Dur("interval", s.interval).Msg("alert scanner started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("alert scanner stopped")
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *Scanner) scan(ctx context.Context) {
	sum, dispatched, err := s.svc.RefreshAlerts(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("alert scan failed")
		return
	}
	s.log.Info().
		Int("dispatched", dispatched).
		Int("low_stock", len(sum.LowStock)).
		Int("expiring_soon", len(sum.ExpiringSoon)).
		Int("expired", len(sum.Expired)).
		Msg("alert scan complete")
}
