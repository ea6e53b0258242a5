package telemetry

import (
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenDeviceCore/internal/config"
)

var (
	ErrMQTTConnectFailed = errors.New("mqtt connect failed")
	ErrMQTTNotConnected  = errors.New("mqtt not connected")
	ErrMQTTPublishFailed = errors.New("mqtt publish failed")
)

const publishTimeout = 3 * time.Second

// MQTTPublisher pushes telemetry payloads to a broker. The paho client
// reconnects on its own; while the broker is away, publishes fail and the
// broadcaster logs and carries on.
type MQTTPublisher struct {
	client pahomqtt.Client
	qos    byte
	logger *zap.Logger
}

// ConnectMQTT dials the broker. The initial connection is bounded by the
// configured timeout; afterwards the client keeps itself connected.
func ConnectMQTT(cfg config.MQTTConfig, logger *zap.Logger) (*MQTTPublisher, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(30 * time.Second).
		SetConnectRetry(false)

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		logger.Info("MQTT connected", zap.String("broker", cfg.Broker))
	})

	client := pahomqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrMQTTConnectFailed, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMQTTConnectFailed, err)
	}

	return &MQTTPublisher{
		client: client,
		qos:    byte(cfg.QoS),
		logger: logger,
	}, nil
}

// Publish sends one payload. Telemetry is periodic, so messages are
// published retained: a listener that connects between cycles immediately
// sees the last state.
func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	if !p.client.IsConnected() {
		return ErrMQTTNotConnected
	}

	token := p.client.Publish(topic, p.qos, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrMQTTPublishFailed, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrMQTTPublishFailed, err)
	}
	return nil
}

// Close disconnects from the broker, letting in-flight work finish.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
