package claims

import (
	"context"
	"time"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/config"
	"github.com/itwhiprentals/itwhip-website-sub025/pkg/logger"
)

// Sweeper is the background guarantee that no request stays CLAIMED or
// CAR_ASSIGNED forever because a host abandoned it without withdrawing. Each
// pass goes through the same conditional transitions as host actions, so a
// sweep and a live action can never both win on the same claim.
type Sweeper struct {
	service  Service
	claimCfg config.ClaimConfig
	log      *logger.Logger
	done     chan struct{}
}

// NewSweeper creates a sweeper driven by the configured interval
func NewSweeper(service Service, claimCfg config.ClaimConfig) *Sweeper {
	return &Sweeper{
		service:  service,
		claimCfg: claimCfg,
		log:      logger.GetDefault(),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It stops when Stop is called or ctx is done.
func (sw *Sweeper) Start(ctx context.Context) {
	go sw.run(ctx)
	sw.log.InfoWithContext(ctx, "lease sweeper started", map[string]interface{}{
		"interval":   sw.claimCfg.SweepInterval.String(),
		"batch_size": sw.claimCfg.SweepBatchSize,
	})
}

// Stop stops the sweep loop
func (sw *Sweeper) Stop() {
	close(sw.done)
}

func (sw *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(sw.claimCfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.sweep(ctx)
		case <-sw.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (sw *Sweeper) sweep(ctx context.Context) {
	if _, err := sw.service.SweepOnce(ctx); err != nil {
		// Nothing to repair: the pass is atomic per lease and the remainder
		// is picked up on the next interval
		sw.log.ErrorWithContext(ctx, "sweep pass failed", err, nil)
	}
}

// Status reports the sweeper configuration for the health surface
func (sw *Sweeper) Status() map[string]interface{} {
	return map[string]interface{}{
		"sweep_interval":      sw.claimCfg.SweepInterval.String(),
		"sweep_batch_size":    sw.claimCfg.SweepBatchSize,
		"lease_duration":      sw.claimCfg.LeaseDuration.String(),
		"completion_deadline": sw.claimCfg.CompletionDeadline.String(),
	}
}
