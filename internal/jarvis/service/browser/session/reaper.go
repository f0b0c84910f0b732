package session

import (
	"context"
	"time"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
)

// Reaper periodically closes sessions idle for longer than MaxIdle. Because
// sessions are only selected when a scan runs, a session may stay open for up
// to MaxIdle plus one scan interval after its last use.
type Reaper struct {
	mgr      *Manager
	interval time.Duration
	maxIdle  time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewReaper constructs a reaper that scans every interval and closes
// sessions idle for longer than maxIdle.
func NewReaper(mgr *Manager, interval, maxIdle time.Duration) *Reaper {
	return &Reaper{
		mgr:      mgr,
		interval: interval,
		maxIdle:  maxIdle,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the scan loop in a background goroutine until Stop is called.
func (r *Reaper) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				n := r.mgr.CloseIdle(ctx, r.maxIdle)
				if n > 0 {
					log.Info("reaped %d idle browser sessions", n)
				}
			}
		}
	}()
}

// Stop signals the scan loop to exit and waits for it to finish.
func (r *Reaper) Stop() {
	close(r.stop)
	<-r.done
}
