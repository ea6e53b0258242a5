package interfaces

import (
	"context"

	"github.com/KevinKickass/OpenDeviceCore/internal/automation"
	"github.com/KevinKickass/OpenDeviceCore/internal/config"
	"github.com/KevinKickass/OpenDeviceCore/internal/device"
	"github.com/KevinKickass/OpenDeviceCore/internal/hal"
	"github.com/KevinKickass/OpenDeviceCore/internal/store"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State       string `json:"state"`
	DeviceCount int    `json:"device_count"`
	RuleCount   int    `json:"rule_count"`
}

// ReconfigureResult summarizes how a reconfiguration batch was applied.
type ReconfigureResult struct {
	Devices int `json:"devices"`
	Rules   int `json:"rules"`
	// Dropped counts spec entries that failed validation and were skipped.
	Dropped int `json:"dropped"`
}

// LifecycleManager is the surface the transport layer works against.
type LifecycleManager interface {
	Config() *config.Config
	Registry() *device.Registry
	RuleEngine() *automation.Engine
	Store() *store.FileStore
	Backend() hal.Backend
	GetCurrentStatus() SystemStatus
	// Reconfigure atomically replaces the device and rule set, then
	// persists the result. The prior set stays live when the snapshot is
	// rejected outright.
	Reconfigure(snap store.Snapshot) ReconfigureResult
	Shutdown(ctx context.Context) error
}
