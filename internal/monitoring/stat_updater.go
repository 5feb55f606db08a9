package monitoring

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/metrics"
	"github.com/isdelr/murmur/internal/store"
)

// StatUpdater is responsible for periodically refreshing the site gauges.
type StatUpdater struct {
	store    store.StatsStore
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
	stopped  chan struct{}
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(stats store.StatsStore, interval time.Duration) *StatUpdater {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatUpdater{
		store:    stats,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Run starts the update loop. It returns after Stop.
func (u *StatUpdater) Run() {
	defer close(u.stopped)
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	u.Update(context.Background())
	for {
		select {
		case <-u.done:
			return
		case <-ticker.C:
			u.Update(context.Background())
		}
	}
}

// Stop halts the loop and waits for it to return.
func (u *StatUpdater) Stop() {
	close(u.done)
	<-u.stopped
}

// Update refreshes the gauges once.
func (u *StatUpdater) Update(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, u.interval)
	defer cancel()

	stats, err := u.store.CountStats(ctx, u.now().UTC())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to refresh site stats")
		return
	}
	metrics.Users.Set(float64(stats.Users))
	metrics.Posts.Set(float64(stats.Posts))
	metrics.ActiveSessions.Set(float64(stats.ActiveSessions))
}
