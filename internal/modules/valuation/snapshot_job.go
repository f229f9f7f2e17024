package valuation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotJob captures end-of-day snapshots for all portfolios.
// Scheduled for market close on weekdays; also triggerable on demand.
type SnapshotJob struct {
	service *Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(service *Service, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		service: service,
		timeout: 5 * time.Minute,
		log:     log.With().Str("job", "daily_snapshot").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "daily_snapshot"
}

// Run sweeps every portfolio. Individual snapshot failures are logged
// inside the service and do not fail the job.
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	captured, failed, err := j.service.SnapshotAll(ctx)
	if err != nil {
		return err
	}

	j.log.Info().
		Int("captured", captured).
		Int("failed", failed).
		Msg("Snapshot sweep completed")

	return nil
}
