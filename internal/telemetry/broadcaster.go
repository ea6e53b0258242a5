package telemetry

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KevinKickass/OpenDeviceCore/internal/api/websocket"
	"github.com/KevinKickass/OpenDeviceCore/internal/device"
)

// Publisher is the optional second push channel next to the websocket hub.
// Implemented by the MQTT client; nil disables it.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Broadcaster periodically reads every device and pushes the readings to
// all connected listeners. It acquires the registry with a bounded wait: if
// a reconfiguration or a slow rule pass holds the guard too long, the cycle
// is skipped and retried on the next interval, the loop never stalls.
type Broadcaster struct {
	registry    *device.Registry
	hub         *websocket.Hub
	publisher   Publisher
	topic       string
	interval    time.Duration
	lockTimeout time.Duration
	logger      *zap.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewBroadcaster(
	registry *device.Registry,
	hub *websocket.Hub,
	publisher Publisher,
	topic string,
	interval time.Duration,
	lockTimeout time.Duration,
	logger *zap.Logger,
) *Broadcaster {
	return &Broadcaster{
		registry:    registry,
		hub:         hub,
		publisher:   publisher,
		topic:       topic,
		interval:    interval,
		lockTimeout: lockTimeout,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

func (b *Broadcaster) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return nil
	}
	b.running = true
	b.wg.Add(1)

	go b.loop()

	b.logger.Info("Telemetry broadcaster started",
		zap.Duration("interval", b.interval),
		zap.Bool("mqtt", b.publisher != nil))
	return nil
}

func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	close(b.stopChan)
	b.wg.Wait()

	b.mu.Lock()
	b.running = false
	b.mu.Unlock()

	b.logger.Info("Telemetry broadcaster stopped")
}

func (b *Broadcaster) loop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.cycle()
		}
	}
}

// cycle runs one broadcast pass.
func (b *Broadcaster) cycle() {
	var states []websocket.DeviceState

	err := b.registry.ExecTimeout(b.lockTimeout, func(v device.View) {
		devices := v.All()
		states = make([]websocket.DeviceState, 0, len(devices))
		for _, d := range devices {
			states = append(states, websocket.DeviceState{
				ID:  d.ID(),
				Val: d.Read(),
			})
		}
	})
	if err != nil {
		if errors.Is(err, device.ErrLockTimeout) {
			b.logger.Warn("Registry busy, skipping telemetry cycle")
			return
		}
		b.logger.Error("Telemetry cycle failed", zap.Error(err))
		return
	}

	b.hub.Broadcast(websocket.NewDeviceStateMessage(states))

	if b.publisher != nil {
		payload, err := json.Marshal(states)
		if err != nil {
			b.logger.Error("Failed to marshal telemetry payload", zap.Error(err))
			return
		}
		if err := b.publisher.Publish(b.topic, payload); err != nil {
			b.logger.Warn("MQTT publish failed", zap.Error(err))
		}
	}
}
