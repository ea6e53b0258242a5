package device

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Registry is the exclusive owner of the live device set. All mutation and
// all iteration happen inside one critical section; callers never hold a
// device handle outside it. The guard is a capacity-1 channel so the
// telemetry path can give up after a bounded wait instead of stalling its
// loop.
//
// Insertion order is preserved for stable enumeration.
type Registry struct {
	sem     chan struct{}
	devices []Device
	index   map[string]int
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		sem:    make(chan struct{}, 1),
		index:  make(map[string]int),
		logger: logger,
	}
}

func (r *Registry) acquire() { r.sem <- struct{}{} }
func (r *Registry) release() { <-r.sem }

func (r *Registry) acquireTimeout(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	}
}

// View is the guarded window onto the device set. It is only valid inside
// the callback that received it.
type View struct {
	r *Registry
}

// Get returns the device with the given id.
func (v View) Get(id string) (Device, bool) {
	i, ok := v.r.index[id]
	if !ok {
		return nil, false
	}
	return v.r.devices[i], true
}

// All returns the live devices in insertion order. The slice is shared;
// callers must not retain it past the critical section.
func (v View) All() []Device {
	return v.r.devices
}

// Exec runs fn inside the registry's critical section.
func (r *Registry) Exec(fn func(View)) {
	r.acquire()
	defer r.release()
	fn(View{r})
}

// ExecTimeout is Exec with a bounded wait for the guard. On timeout it
// returns ErrLockTimeout without running fn.
func (r *Registry) ExecTimeout(d time.Duration, fn func(View)) error {
	if err := r.acquireTimeout(d); err != nil {
		return err
	}
	defer r.release()
	fn(View{r})
	return nil
}

// WithDevice runs fn with the device of the given id, if present. The handle
// is only valid inside fn.
func (r *Registry) WithDevice(id string, fn func(Device)) bool {
	r.acquire()
	defer r.release()
	i, ok := r.index[id]
	if !ok {
		return false
	}
	fn(r.devices[i])
	return true
}

// Install adds a device. Ids are unique; replacing an existing device
// requires a wholesale ReplaceAll.
func (r *Registry) Install(dev Device) error {
	r.acquire()
	defer r.release()
	if _, exists := r.index[dev.ID()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateDevice, dev.ID())
	}
	r.index[dev.ID()] = len(r.devices)
	r.devices = append(r.devices, dev)
	return nil
}

// ReplaceAll atomically swaps the entire device set and releases the prior
// one. Devices in the new set that duplicate an earlier id are dropped; no
// caller ever observes a partially replaced set.
func (r *Registry) ReplaceAll(devices []Device) {
	r.acquire()
	defer r.release()

	for _, dev := range r.devices {
		if err := dev.Close(); err != nil {
			r.logger.Warn("Device teardown failed",
				zap.String("id", dev.ID()),
				zap.Error(err))
		}
	}

	r.devices = make([]Device, 0, len(devices))
	r.index = make(map[string]int, len(devices))
	for _, dev := range devices {
		if _, exists := r.index[dev.ID()]; exists {
			r.logger.Warn("Dropping duplicate device id on replace",
				zap.String("id", dev.ID()))
			continue
		}
		r.index[dev.ID()] = len(r.devices)
		r.devices = append(r.devices, dev)
	}

	r.logger.Info("Device set replaced", zap.Int("count", len(r.devices)))
}

// Len returns the number of installed devices.
func (r *Registry) Len() int {
	r.acquire()
	defer r.release()
	return len(r.devices)
}

// Specs returns the declarative form of every installed device in insertion
// order, for persistence.
func (r *Registry) Specs() []Spec {
	r.acquire()
	defer r.release()
	specs := make([]Spec, 0, len(r.devices))
	for _, dev := range r.devices {
		specs = append(specs, Spec{
			ID:     dev.ID(),
			Driver: dev.Driver(),
			Name:   dev.Name(),
			Pin:    dev.Address(),
		})
	}
	return specs
}

// Close releases every device. Called once at shutdown.
func (r *Registry) Close() {
	r.ReplaceAll(nil)
}
