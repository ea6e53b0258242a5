package device

import "github.com/KevinKickass/OpenDeviceCore/internal/hal"

// Kind identifies which driver variant backs a device. The set is closed;
// the factory is the only place new kinds get mapped in.
type Kind string

const (
	KindDigitalIO          Kind = "DigitalIO"
	KindAnalogInput        Kind = "AnalogInput"
	KindTemperatureDHT     Kind = "TemperatureDHT"
	KindTemperatureOneWire Kind = "TemperatureOneWire"
	KindServo              Kind = "Servo"
	KindPixelStrip         Kind = "PixelStrip"
	KindPowerMonitor       Kind = "PowerMonitor"
	KindEnvironmentSensor  Kind = "EnvironmentSensor"
	KindLightMeter         Kind = "LightMeter"
	KindTextDisplay        Kind = "TextDisplay"
)

// BusAddressed reports whether the kind's address is a shared-bus address
// rather than a GPIO pin number.
func (k Kind) BusAddressed() bool {
	switch k {
	case KindPowerMonitor, KindEnvironmentSensor, KindLightMeter, KindTextDisplay:
		return true
	default:
		return false
	}
}

// Category constrains which operations are meaningful on a device.
type Category string

const (
	SensorBinary   Category = "sensor_binary"
	SensorValue    Category = "sensor_value"
	ActuatorBinary Category = "actuator_binary"
	ActuatorValue  Category = "actuator_value"
	DisplayDevice  Category = "display"
)

// IsActuator reports whether the category accepts write commands.
func (c Category) IsActuator() bool {
	return c == ActuatorBinary || c == ActuatorValue || c == DisplayDevice
}

// Snapshot is the set of key-value fields one read produces. Transient
// hardware failures surface as the "error" field instead of failing the
// read call.
type Snapshot map[string]any

// Err returns the snapshot's error field, if the read failed.
func (s Snapshot) Err() (string, bool) {
	v, ok := s["error"].(string)
	return v, ok
}

// Float looks up a numeric field, converting the handful of numeric types
// drivers put into snapshots.
func (s Snapshot) Float(key string) (float64, bool) {
	switch v := s[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Device is a software handle to one physical sensor or actuator. Writes on
// variants that do not support them are silent no-ops so that a rule aimed
// at the wrong kind degrades gracefully instead of erroring every tick.
type Device interface {
	ID() string
	Name() string
	// Driver is the configured tag (RELAY, DHT22, ...) as it round-trips
	// through the persisted snapshot.
	Driver() string
	Address() int
	Kind() Kind
	Category() Category

	// Init performs one-time hardware setup. A failure marks the device
	// non-functional but never removes it; the caller logs and keeps it.
	Init() error
	Read() Snapshot
	Write(cmd string, val float64)
	WriteText(text string)
	// Close releases hardware resources. Called on wholesale replacement
	// and shutdown.
	Close() error
}

// base carries the identity shared by every driver variant and provides the
// no-op write/teardown defaults.
type base struct {
	id      string
	name    string
	driver  string
	address int
	hw      hal.Backend
}

func (b *base) ID() string     { return b.id }
func (b *base) Name() string   { return b.name }
func (b *base) Driver() string { return b.driver }
func (b *base) Address() int   { return b.address }

func (b *base) Write(string, float64) {}
func (b *base) WriteText(string)      {}
func (b *base) Close() error          { return nil }
