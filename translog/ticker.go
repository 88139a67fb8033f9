package translog

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// STHTicker periodically forces a fresh signed tree head even when no new
// entries have arrived, adapted from the teacher's internal/presence/agent.go
// heartbeat loop. Each STH it issues is only logged: it is not stored or
// served. Verifiers polling the log get a freshly signed STH from Log.Root
// on every request.
type STHTicker struct {
	log      *Log
	interval time.Duration
	logger   zerolog.Logger
}

// NewSTHTicker builds a ticker over log, emitting every interval.
func NewSTHTicker(log *Log, interval time.Duration, logger zerolog.Logger) *STHTicker {
	return &STHTicker{log: log, interval: interval, logger: logger.With().Str("module", "translog.sth_ticker").Logger()}
}

// Run blocks, issuing a fresh STH on each tick, until ctx is canceled.
func (t *STHTicker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	t.logger.Info().Dur("interval", t.interval).Msg("sth ticker: started")
	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("sth ticker: stopping")
			return
		case <-ticker.C:
			sth, err := t.log.Root(ctx)
			if err != nil {
				t.logger.Error().Err(err).Msg("sth ticker: failed to issue sth")
				continue
			}
			t.logger.Debug().Int64("tree_size", sth.TreeSize).Msg("sth ticker: emitted")
		}
	}
}
