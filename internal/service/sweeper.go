package service

import (
	"context"
	"log"
	"time"

	"bandhan/config"
	"bandhan/internal/models"
)

const sweepBatchSize = 50

// Sweeper settles calls whose webhooks never arrived. It periodically scans
// for non-terminal sessions open longer than the staleness threshold and
// polls the gateway for their real outcome; one bad call never blocks the
// rest of the batch.
type Sweeper struct {
	cfg   *config.SweeperConfig
	calls *CallService
}

func NewSweeper(cfg *config.SweeperConfig, calls *CallService) *Sweeper {
	return &Sweeper{cfg: cfg, calls: calls}
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	log.Printf("[SWEEPER] started, interval=%s stale_after=%s", s.cfg.Interval, s.cfg.StaleAfter)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[SWEEPER] stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce processes one batch of stale sessions.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.StaleAfter)
	stale, err := s.calls.callRepo.ListStale(cutoff, sweepBatchSize)
	if err != nil {
		log.Printf("[SWEEPER] list stale sessions: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	log.Printf("[SWEEPER] found %d stale session(s)", len(stale))
	for i := range stale {
		if ctx.Err() != nil {
			return
		}
		s.sweepSession(ctx, &stale[i])
	}
}

func (s *Sweeper) sweepSession(ctx context.Context, session *models.CallSession) {
	pollCtx, cancel := context.WithTimeout(ctx, s.cfg.PollTimeout)
	defer cancel()

	status, err := s.calls.gateway.FetchCallStatus(pollCtx, session.ProviderCallID)
	if err != nil {
		log.Printf("[SWEEPER] poll failed for session %d (sid=%s): %v", session.ID, session.ProviderCallID, err)
		return
	}
	if err := s.calls.applyProviderStatus(session, status); err != nil {
		log.Printf("[SWEEPER] apply failed for session %d: %v", session.ID, err)
	}
}
