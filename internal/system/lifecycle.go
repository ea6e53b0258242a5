package system

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/KevinKickass/OpenDeviceCore/internal/api/rest"
	"github.com/KevinKickass/OpenDeviceCore/internal/api/websocket"
	"github.com/KevinKickass/OpenDeviceCore/internal/automation"
	"github.com/KevinKickass/OpenDeviceCore/internal/config"
	"github.com/KevinKickass/OpenDeviceCore/internal/device"
	"github.com/KevinKickass/OpenDeviceCore/internal/hal"
	"github.com/KevinKickass/OpenDeviceCore/internal/interfaces"
	"github.com/KevinKickass/OpenDeviceCore/internal/store"
	"github.com/KevinKickass/OpenDeviceCore/internal/telemetry"
)

// LifecycleManager owns every component: it builds them, starts them in
// dependency order, serves them to the transport layer and tears them down
// on shutdown.
type LifecycleManager struct {
	config   *config.Config
	logger   *zap.Logger
	backend  hal.Backend
	registry *device.Registry
	factory  *device.Factory
	engine   *automation.Engine
	store    *store.FileStore

	wsHub       *websocket.Hub
	broadcaster *telemetry.Broadcaster
	mqtt        *telemetry.MQTTPublisher
	restServer  *rest.Server

	stateMu      sync.RWMutex
	currentState SystemState

	// reconfigMu serializes whole reconfigurations so two concurrent
	// requests cannot interleave their replace/persist sequences.
	reconfigMu sync.Mutex

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewLifecycleManager(cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	backend, err := newBackend(cfg.Hardware)
	if err != nil {
		return nil, err
	}

	fileStore, err := store.NewFileStore(cfg.Snapshot.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}

	registry := device.NewRegistry(logger)
	factory := device.NewFactory(backend, logger)
	engine := automation.NewEngine(registry, cfg.Engine.TickInterval, logger)
	wsHub := websocket.NewHub(logger)

	var mqtt *telemetry.MQTTPublisher
	if cfg.MQTT.Enabled {
		mqtt, err = telemetry.ConnectMQTT(cfg.MQTT, logger)
		if err != nil {
			// Telemetry is best-effort; the node runs without a broker.
			logger.Warn("MQTT unavailable, continuing without it", zap.Error(err))
			mqtt = nil
		}
	}

	var publisher telemetry.Publisher
	if mqtt != nil {
		publisher = mqtt
	}
	broadcaster := telemetry.NewBroadcaster(
		registry,
		wsHub,
		publisher,
		cfg.MQTT.TopicPrefix+"/state",
		cfg.Telemetry.Interval,
		cfg.Telemetry.LockTimeout,
		logger,
	)

	return &LifecycleManager{
		config:       cfg,
		logger:       logger,
		backend:      backend,
		registry:     registry,
		factory:      factory,
		engine:       engine,
		store:        fileStore,
		wsHub:        wsHub,
		broadcaster:  broadcaster,
		mqtt:         mqtt,
		currentState: StateInitializing,
		shutdownChan: make(chan struct{}),
	}, nil
}

func newBackend(cfg config.HardwareConfig) (hal.Backend, error) {
	switch cfg.Backend {
	case "", "sim":
		return hal.NewSimulator(), nil
	default:
		return nil, fmt.Errorf("unknown hardware backend: %q", cfg.Backend)
	}
}

// Start brings the system up: snapshot load, device construction, engine,
// telemetry, transport.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting OpenDeviceCore")

	snap := lm.store.Load()
	devices := lm.factory.BuildAll(snap.Devices)
	for _, d := range devices {
		if err := lm.registry.Install(d); err != nil {
			lm.logger.Warn("Skipping device on install",
				zap.String("id", d.ID()),
				zap.Error(err))
		}
	}
	lm.engine.SetRules(snap.Rules)

	lm.logger.Info("Snapshot loaded",
		zap.Int("devices", lm.registry.Len()),
		zap.Int("rules", len(lm.engine.Rules())))

	go lm.wsHub.Run()

	if err := lm.engine.Start(); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to start rule engine: %w", err)
	}
	if err := lm.broadcaster.Start(); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to start telemetry: %w", err)
	}

	lm.restServer = rest.NewServer(lm.config, lm, lm.logger, lm.wsHub)
	if err := lm.restServer.Start(); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to start REST API: %w", err)
	}

	lm.setState(StateRunning)
	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort))
	return nil
}

// Reconfigure atomically replaces the device and rule set, then persists.
// Invalid entries are dropped and counted; a persistence failure is logged,
// never escalated to the caller.
func (lm *LifecycleManager) Reconfigure(snap store.Snapshot) interfaces.ReconfigureResult {
	lm.reconfigMu.Lock()
	defer lm.reconfigMu.Unlock()

	devices := lm.factory.BuildAll(snap.Devices)
	rules := automation.ValidRules(snap.Rules, lm.logger)
	dropped := (len(snap.Devices) - len(devices)) + (len(snap.Rules) - len(rules))

	lm.registry.ReplaceAll(devices)
	lm.engine.SetRules(rules)

	persisted := store.Snapshot{
		Devices: lm.registry.Specs(),
		Rules:   lm.engine.Rules(),
	}
	if err := lm.store.Save(persisted); err != nil {
		lm.logger.Error("Failed to persist snapshot", zap.Error(err))
	}

	result := interfaces.ReconfigureResult{
		Devices: len(persisted.Devices),
		Rules:   len(persisted.Rules),
		Dropped: dropped,
	}

	lm.wsHub.Broadcast(websocket.NewConfigAppliedMessage(result.Devices, result.Rules, result.Dropped))
	lm.logger.Info("Reconfiguration applied",
		zap.Int("devices", result.Devices),
		zap.Int("rules", result.Rules),
		zap.Int("dropped", result.Dropped))
	return result
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")
		lm.setState(StateStopping)

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	var wg sync.WaitGroup
	errChan := make(chan error, 3)

	// Stop the loops first so nothing touches devices mid-teardown.
	wg.Add(1)
	go func() {
		defer wg.Done()
		lm.engine.Stop()
		lm.broadcaster.Stop()
	}()

	if lm.restServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := lm.restServer.Shutdown(ctx); err != nil {
				errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		return fmt.Errorf("shutdown timeout exceeded")
	case err := <-errChan:
		return err
	}

	// Loops are down; release devices and the broker connection.
	lm.registry.Close()
	if lm.mqtt != nil {
		lm.mqtt.Close()
	}

	lm.logger.Info("Graceful shutdown completed")
	return nil
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("State transition rejected", zap.Error(err))
		return
	}
	lm.logger.Info("System state changed",
		zap.String("from", lm.currentState.String()),
		zap.String("to", state.String()))
	lm.currentState = state

	lm.wsHub.Broadcast(websocket.NewSystemStatusMessage(state.String()))
}

// Accessors for the transport layer.

func (lm *LifecycleManager) Config() *config.Config         { return lm.config }
func (lm *LifecycleManager) Registry() *device.Registry     { return lm.registry }
func (lm *LifecycleManager) RuleEngine() *automation.Engine { return lm.engine }
func (lm *LifecycleManager) Store() *store.FileStore        { return lm.store }
func (lm *LifecycleManager) Backend() hal.Backend           { return lm.backend }
func (lm *LifecycleManager) Hub() *websocket.Hub            { return lm.wsHub }

func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	state := lm.currentState
	lm.stateMu.RUnlock()

	return interfaces.SystemStatus{
		State:       state.String(),
		DeviceCount: lm.registry.Len(),
		RuleCount:   len(lm.engine.Rules()),
	}
}
