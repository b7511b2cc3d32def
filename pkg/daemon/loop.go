package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/nuost/ebbflood/pkg/controller"
)

// RunLoop ticks every active controller until the context is canceled.
// The loop interval only bounds tick latency; each controller gates
// itself to its own period.
func (r *Registry) RunLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.WithField("interval", interval).Debug("tick loop starts")
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("tick loop stopped")
			return
		case <-ticker.C:
			r.tickAll()
		}
	}
}

func (r *Registry) tickAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.entries {
		if e.ctrl == nil {
			continue
		}

		err := e.ctrl.Tick()
		if err == nil {
			continue
		}
		if errors.Is(err, controller.ErrTickInErrorPhase) {
			// The controller already requested its own deactivation;
			// repeating the request is harmless and covers a lost one.
			r.log.WithField("controller", id).Warn("ticked controller still in error phase, forcing deactivation")
			r.Deactivate(id)
			continue
		}
		r.log.WithField("controller", id).WithError(err).Error("controller tick failed")
	}
}
