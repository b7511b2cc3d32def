package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nuost/ebbflood/pkg/config"
	"github.com/nuost/ebbflood/pkg/controller"
	"github.com/nuost/ebbflood/pkg/types"
)

// FlagStore persists controller activation flags across daemon restarts.
type FlagStore interface {
	SetActivated(controllerID, name string, activated bool) error
	Activated(controllerID string) (bool, error)
}

type entry struct {
	fileCfg config.Controller
	cfg     controller.Config

	// ctrl is non-nil only while the controller is activated. Every
	// activation builds a fresh controller so a new cycle starts from
	// idle with freshly seeded counters.
	ctrl *controller.Controller

	scheduler *Scheduler
}

// Registry owns the configured controllers and their activation state.
// It is the Deactivator handed to every controller: end-of-cycle
// deactivation arrives asynchronously from inside a tick.
type Registry struct {
	log    *logrus.Logger
	flags  FlagStore
	meas   controller.MeasurementStore
	driver controller.OutputDriver
	events controller.EventSink
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

var _ controller.Deactivator = (*Registry)(nil)

// NewRegistry creates a registry for the configured controllers.
func NewRegistry(controllers []config.Controller, flags FlagStore, meas controller.MeasurementStore, driver controller.OutputDriver, events controller.EventSink, log *logrus.Logger) *Registry {
	if events == nil {
		events = controller.NopSink{}
	}

	r := &Registry{
		log:     log,
		flags:   flags,
		meas:    meas,
		driver:  driver,
		events:  events,
		now:     time.Now,
		entries: map[string]*entry{},
	}
	for _, fc := range controllers {
		r.entries[fc.ID] = &entry{fileCfg: fc, cfg: fc.ControllerConfig()}
	}
	return r
}

// Activate starts a new cycle for the controller. Activating an already
// active controller is a no-op.
func (r *Registry) Activate(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("unknown controller %s", id)
	}
	if e.ctrl != nil {
		return nil
	}

	e.ctrl = controller.New(e.cfg, r.meas, r.driver, r,
		controller.WithClock(r.now),
		controller.WithEvents(r.events),
		controller.WithLogger(r.log),
	)
	if err := r.flags.SetActivated(id, e.cfg.Name, true); err != nil {
		r.log.WithField("controller", id).WithError(err).Error("failed to persist activation")
	}

	r.log.WithFields(logrus.Fields{
		"controller": id,
		"name":       e.cfg.Name,
	}).Info("controller activated")
	return nil
}

// Deactivate removes the controller from the tick set and shuts it
// down. The work runs in its own goroutine because controllers request
// their own deactivation from inside a tick.
func (r *Registry) Deactivate(id string) {
	go r.deactivate(id)
}

func (r *Registry) deactivate(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || e.ctrl == nil {
		r.mu.Unlock()
		return
	}
	ctrl := e.ctrl
	e.ctrl = nil
	r.mu.Unlock()

	if err := r.flags.SetActivated(id, e.cfg.Name, false); err != nil {
		r.log.WithField("controller", id).WithError(err).Error("failed to persist deactivation")
	}

	// The controller is out of the tick set now, so Shutdown cannot
	// race a tick.
	ctrl.Shutdown()

	r.log.WithField("controller", id).Info("controller deactivated")
}

// RestoreActivations re-activates every controller whose persisted flag
// is set, so a daemon restart resumes interrupted duty.
func (r *Registry) RestoreActivations() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		on, err := r.flags.Activated(id)
		if err != nil {
			r.log.WithField("controller", id).WithError(err).Error("failed to read activation flag")
			continue
		}
		if !on {
			continue
		}
		if err := r.Activate(id); err != nil {
			r.log.WithField("controller", id).WithError(err).Error("failed to restore activation")
		}
	}
}

// ResetErrors zeroes the persisted error counter of the controller.
func (r *Registry) ResetErrors(id string) (string, error) {
	r.mu.Lock()
	_, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown controller %s", id)
	}
	return controller.ResetErrorCounter(r.meas, id)
}

func (r *Registry) statusLocked(id string, e *entry) types.ControllerStatus {
	st := types.ControllerStatus{
		ID:       id,
		Name:     e.cfg.Name,
		Active:   e.ctrl != nil,
		Schedule: e.fileCfg.Schedule,
	}
	if e.ctrl != nil {
		s := e.ctrl.Status()
		st.State = &s
	}
	if e.scheduler != nil {
		if next, ok := e.scheduler.NextRun(); ok {
			st.NextRun = &next
		}
	}
	return st
}

// Status returns the API view of one controller.
func (r *Registry) Status(id string) (types.ControllerStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return types.ControllerStatus{}, fmt.Errorf("unknown controller %s", id)
	}
	return r.statusLocked(id, e), nil
}

// Statuses returns the API view of every configured controller.
func (r *Registry) Statuses() []types.ControllerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.ControllerStatus, 0, len(r.entries))
	for id, e := range r.entries {
		out = append(out, r.statusLocked(id, e))
	}
	return out
}

// StartSchedulers starts a cron scheduler for every controller that has
// a schedule configured.
func (r *Registry) StartSchedulers() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.entries {
		if e.fileCfg.Schedule == "" {
			continue
		}

		id := id
		s, err := NewScheduler(e.fileCfg.Schedule, func() error { return r.Activate(id) }, r.log)
		if err != nil {
			return fmt.Errorf("controller %s: %w", id, err)
		}
		e.scheduler = s
		s.Start()

		r.log.WithFields(logrus.Fields{
			"controller": id,
			"schedule":   e.fileCfg.Schedule,
		}).Info("activation schedule installed")
	}
	return nil
}

// StopSchedulers stops all running schedulers.
func (r *Registry) StopSchedulers() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.scheduler != nil {
			e.scheduler.Stop()
		}
	}
}

// DeactivateAll synchronously deactivates every active controller. Used
// during daemon shutdown.
func (r *Registry) DeactivateAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.entries))
	for id, e := range r.entries {
		if e.ctrl != nil {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.deactivate(id)
	}
}
