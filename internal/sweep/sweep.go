// Package sweep runs the background tombstone cleanup §3's Lifecycles
// section calls for: unverified users older than 7 days and previously
// soft-deleted users/emojis are hard-deleted on a schedule, rather than
// at the moment they're marked deleted. Grounded on the teacher's
// pkg/cron package for the general shape of a scheduled maintenance
// job, but scheduled with github.com/robfig/cron/v3 (a direct teacher
// dependency the hand-rolled CronService in pkg/cron doesn't itself
// exercise) instead of hand-rolling a timer.
package sweep

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/eludris-go/eludris/internal/store"
)

// UnverifiedRetention is how long an unverified account survives
// before the sweep hard-deletes it (§3).
const UnverifiedRetention = 7 * 24 * time.Hour

// Sweeper periodically removes tombstoned users/emojis and stale
// unverified accounts.
type Sweeper struct {
	store *store.Store
	log   zerolog.Logger
	cron  *cron.Cron
}

// New builds a Sweeper over s. It does not start running until Start.
func New(s *store.Store, log zerolog.Logger) *Sweeper {
	return &Sweeper{store: s, log: log, cron: cron.New()}
}

// Start schedules the sweep to run once per hour and returns
// immediately; call Stop to end it.
func (sw *Sweeper) Start() error {
	_, err := sw.cron.AddFunc("@hourly", sw.runOnce)
	if err != nil {
		return err
	}
	sw.cron.Start()
	return nil
}

// Stop waits for any in-flight run to finish and halts scheduling.
func (sw *Sweeper) Stop() {
	<-sw.cron.Stop().Done()
}

// runOnce performs a single sweep pass, logging but not propagating
// per-step failures so one bad step doesn't cancel the rest (§7's
// "partial failures in background tasks are logged and dropped").
func (sw *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-UnverifiedRetention).Unix()
	if n, err := sw.store.HardDeleteUnverified(ctx, cutoff); err != nil {
		sw.log.Error().Err(err).Msg("sweep: hard-delete unverified users failed")
	} else if n > 0 {
		sw.log.Info().Int64("count", n).Msg("sweep: hard-deleted unverified users")
	}

	if n, err := sw.store.HardDeleteTombstonedUsers(ctx, cutoff); err != nil {
		sw.log.Error().Err(err).Msg("sweep: hard-delete tombstoned users failed")
	} else if n > 0 {
		sw.log.Info().Int64("count", n).Msg("sweep: hard-deleted tombstoned users")
	}

	if n, err := sw.store.HardDeleteTombstonedEmojis(ctx); err != nil {
		sw.log.Error().Err(err).Msg("sweep: hard-delete tombstoned emojis failed")
	} else if n > 0 {
		sw.log.Info().Int64("count", n).Msg("sweep: hard-deleted tombstoned emojis")
	}
}
