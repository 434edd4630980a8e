package fleet

import (
	"context"
	"sync"
	"time"

	"tidewatch-sim/internal/logging"
	"tidewatch-sim/internal/metrics"
	"tidewatch-sim/internal/tide"
)

const (
	stageArmed = iota
	stagePaused
	stageStopped
)

// Controller turns asynchronous interruption signals into orderly fleet
// transitions. The first acted-on signal pauses every station, the second
// stops them all; an operator resume in between re-arms the escalation.
// Rapid repeats inside the debounce window collapse into one request.
type Controller struct {
	mu     sync.Mutex
	reg    *Registry
	window time.Duration
	last   time.Time
	stage  int
	stats  InterruptionStats
	now    func() time.Time
}

func newController(reg *Registry, window time.Duration) *Controller {
	return &Controller{reg: reg, window: window, now: time.Now}
}

// Interrupt handles one interruption signal. It is safe to call from any
// goroutine: the controller lock serializes its effect against other
// transitions, and each station's own lock serializes it against an
// in-flight ingest.
func (c *Controller) Interrupt(ctx context.Context) {
	log := logging.FromContext(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.stats.Received++

	if c.stage == stageStopped {
		log.Warn("interruption ignored, fleet already stopped")
		return
	}
	if !c.last.IsZero() && now.Sub(c.last) < c.window {
		c.stats.Suppressed++
		metrics.InterruptionsSuppressed.Inc()
		c.reg.record(ctx, tide.Event{Type: tide.EventInterruptSuppressed})
		log.Info("interruption suppressed", "window", c.window)
		return
	}
	c.last = now
	c.stats.LastSignal = now
	metrics.InterruptionsTotal.Inc()

	switch c.stage {
	case stageArmed:
		c.stage = stagePaused
		c.stats.Pauses++
		c.reg.record(ctx, tide.Event{Type: tide.EventInterrupt, Detail: "pause"})
		paused := c.reg.pauseAll(ctx)
		log.Warn("graceful pause, interrupt again to stop", "stations_paused", paused)
	case stagePaused:
		c.stage = stageStopped
		c.stats.Stops++
		c.reg.record(ctx, tide.Event{Type: tide.EventInterrupt, Detail: "stop"})
		stopped := c.reg.stopAll(ctx)
		log.Warn("stopping fleet", "stations_stopped", stopped)
	}
}

// Resume restarts paused stations and re-arms the two-stage escalation,
// clearing the debounce reference so the next signal acts immediately.
func (c *Controller) Resume(ctx context.Context) {
	log := logging.FromContext(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage == stageStopped {
		log.Warn("resume ignored, fleet already stopped")
		return
	}
	c.stage = stageArmed
	c.last = time.Time{}
	c.stats.Resumes++
	resumed := c.reg.resumeAll(ctx)
	log.Info("fleet resumed", "stations_resumed", resumed)
}

// Shutdown stops the fleet unconditionally, bypassing the escalation.
func (c *Controller) Shutdown(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage == stageStopped {
		return
	}
	c.stage = stageStopped
	c.stats.Stops++
	stopped := c.reg.stopAll(ctx)
	logging.FromContext(ctx).Info("fleet shutdown", "stations_stopped", stopped)
}

// Stats returns a copy of the interruption counters.
func (c *Controller) Stats() InterruptionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
