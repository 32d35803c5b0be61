// Package reaper releases abandoned holds. The hold TTL is enforced here,
// never by the request path, so a slow client cannot extend its own hold.
package reaper

import (
	"context"
	"log"
	"time"
)

// ReservationSweeper is the slice of the reservation service the reaper
// drives.
type ReservationSweeper interface {
	ExpireDue(ctx context.Context, limit int) (int, error)
	CompleteElapsed(ctx context.Context, limit int) (int, error)
}

type Reaper struct {
	svc      ReservationSweeper
	logger   *log.Logger
	interval time.Duration
	batch    int
}

const (
	defaultInterval = 30 * time.Second
	defaultBatch    = 100
)

func New(svc ReservationSweeper, logger *log.Logger, opts ...Option) *Reaper {
	if logger == nil {
		logger = log.Default()
	}
	r := &Reaper{
		svc:      svc,
		logger:   logger,
		interval: defaultInterval,
		batch:    defaultBatch,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type Option func(*Reaper)

func WithInterval(d time.Duration) Option {
	return func(r *Reaper) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Reaper) {
		if n > 0 {
			r.batch = n
		}
	}
}

// Run sweeps on a fixed interval until ctx is cancelled. One sweep runs
// immediately on start so restarts do not delay expiry by a full tick.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	expired, err := r.svc.ExpireDue(ctx, r.batch)
	if err != nil {
		r.logger.Printf("reaper expire sweep failed: %v", err)
	} else if expired > 0 {
		r.logger.Printf("reaper expired holds count=%d", expired)
	}

	completed, err := r.svc.CompleteElapsed(ctx, r.batch)
	if err != nil {
		r.logger.Printf("reaper complete sweep failed: %v", err)
	} else if completed > 0 {
		r.logger.Printf("reaper completed reservations count=%d", completed)
	}
}
