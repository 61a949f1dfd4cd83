package job

import (
	"context"
	"time"
)

// StaleReclaimer redelivers queue messages whose consumer died mid
// task.
type StaleReclaimer interface {
	ReclaimStale(ctx context.Context) error
}

// NewReclaimJob polls for stalled deliveries. Runs on start so work
// orphaned by a crash is picked up as soon as a process comes back.
func NewReclaimJob(reclaimer StaleReclaimer, interval time.Duration) Job {
	return Job{
		Name:       "queue-reclaim",
		Interval:   interval,
		Timeout:    interval,
		RunOnStart: true,
		Fn:         reclaimer.ReclaimStale,
	}
}

// PostReindexer rebuilds the posts index from the relational store.
type PostReindexer interface {
	Execute(ctx context.Context) (int, error)
}

// NewNightlyReindexJob repairs index drift left behind by abandoned
// tasks. It wipes the index first, so it must not fire at boot.
func NewNightlyReindexJob(reindexer PostReindexer) Job {
	return Job{
		Name:     "nightly-reindex",
		Interval: 24 * time.Hour,
		Timeout:  30 * time.Minute,
		Fn: func(ctx context.Context) error {
			_, err := reindexer.Execute(ctx)
			return err
		},
	}
}
