package device

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenDeviceCore/internal/hal"
)

// Spec is the declarative form of one device, as it appears in the persisted
// snapshot and in reconfiguration payloads. Pin holds either a GPIO pin
// number or a bus address; the driver tag decides which.
type Spec struct {
	ID     string `json:"id"`
	Driver string `json:"driver"`
	Name   string `json:"name"`
	Pin    int    `json:"pin"`
}

// variant describes how one driver tag maps onto a device constructor.
type variant struct {
	kind     Kind
	output   bool
	inverted bool
}

// driverTable maps every accepted tag to its variant. Digital tags encode
// direction and inversion: relay boards and latched outputs drive the pin,
// pulled-up contacts read inverted, PIR-style sensors read straight.
var driverTable = map[string]variant{
	// Binary actuators
	"RELAY":  {kind: KindDigitalIO, output: true},
	"VALVE":  {kind: KindDigitalIO, output: true},
	"PUMP":   {kind: KindDigitalIO, output: true},
	"HEATER": {kind: KindDigitalIO, output: true},
	"LOCK":   {kind: KindDigitalIO, output: true},
	// Active-low output
	"LIGHT_INV": {kind: KindDigitalIO, output: true, inverted: true},
	// Pulled-up contacts read LOW when closed
	"BUTTON": {kind: KindDigitalIO, inverted: true},
	"DOOR":   {kind: KindDigitalIO, inverted: true},
	"WINDOW": {kind: KindDigitalIO, inverted: true},
	"REED":   {kind: KindDigitalIO, inverted: true},
	// Active-high digital sensors
	"PIR":       {kind: KindDigitalIO},
	"MOTION":    {kind: KindDigitalIO},
	"VIBRATION": {kind: KindDigitalIO},
	"SOUND_DIG": {kind: KindDigitalIO},
	"SOUND":     {kind: KindDigitalIO},
	// Analog inputs
	"POT":     {kind: KindAnalogInput},
	"LDR":     {kind: KindAnalogInput},
	"SOIL":    {kind: KindAnalogInput},
	"WATER":   {kind: KindAnalogInput},
	"MQ2":     {kind: KindAnalogInput},
	"MQ135":   {kind: KindAnalogInput},
	"MQ7":     {kind: KindAnalogInput},
	"VOLTAGE": {kind: KindAnalogInput},
	// Dedicated-pin sensors
	"DHT11":   {kind: KindTemperatureDHT},
	"DHT22":   {kind: KindTemperatureDHT},
	"DS18B20": {kind: KindTemperatureOneWire},
	// Value actuators
	"SERVO":    {kind: KindServo},
	"NEOPIXEL": {kind: KindPixelStrip},
	// Bus peripherals
	"INA219":  {kind: KindPowerMonitor},
	"BME280":  {kind: KindEnvironmentSensor},
	"BH1750":  {kind: KindLightMeter},
	"SSD1306": {kind: KindTextDisplay},
	"LCD1602": {kind: KindTextDisplay},
}

// GPIO pins wired to boot strapping and the flash chip. Configuring them
// bricks the board, so they are never accepted.
var reservedPins = map[int]bool{
	1: true, 3: true, 6: true, 7: true, 8: true, 9: true, 10: true, 11: true,
}

// Input-only pins; fine for sensors, rejected for anything that drives.
var inputOnlyPins = map[int]bool{
	34: true, 35: true, 36: true, 39: true,
}

const (
	maxGPIOPin = 39
	minBusAddr = 1
	maxBusAddr = 127
)

// Factory validates device specs and constructs initialized devices against
// one hardware backend.
type Factory struct {
	hw     hal.Backend
	logger *zap.Logger
}

func NewFactory(hw hal.Backend, logger *zap.Logger) *Factory {
	return &Factory{hw: hw, logger: logger}
}

// Build validates spec and returns an initialized device. A hardware init
// failure is logged and the device is returned anyway: it stays installed
// and reports read failures until the hardware answers. Validation failures
// return an error and no device.
func (f *Factory) Build(spec Spec) (Device, error) {
	v, ok := driverTable[strings.ToUpper(spec.Driver)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, spec.Driver)
	}

	if err := validateAddress(v, spec.Pin); err != nil {
		return nil, err
	}

	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}

	b := base{
		id:      id,
		name:    spec.Name,
		driver:  strings.ToUpper(spec.Driver),
		address: spec.Pin,
		hw:      f.hw,
	}

	var dev Device
	switch v.kind {
	case KindDigitalIO:
		dev = &digitalIO{base: b, output: v.output, inverted: v.inverted}
	case KindAnalogInput:
		dev = &analogInput{base: b}
	case KindTemperatureDHT:
		dev = &climateSensor{base: b}
	case KindTemperatureOneWire:
		dev = &probeSensor{base: b}
	case KindServo:
		dev = &servo{base: b}
	case KindPixelStrip:
		dev = &pixelStrip{base: b}
	case KindPowerMonitor:
		dev = &powerMonitor{base: b}
	case KindEnvironmentSensor:
		dev = &environmentSensor{base: b}
	case KindLightMeter:
		dev = &lightMeter{base: b}
	case KindTextDisplay:
		dev = &textDisplay{base: b}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, spec.Driver)
	}

	if err := dev.Init(); err != nil {
		f.logger.Warn("Device init failed, keeping device installed",
			zap.String("id", id),
			zap.String("driver", b.driver),
			zap.Int("address", spec.Pin),
			zap.Error(err))
	}

	return dev, nil
}

// BuildAll constructs every valid spec in the batch. Invalid entries are
// logged and dropped; the rest of the batch proceeds.
func (f *Factory) BuildAll(specs []Spec) []Device {
	devices := make([]Device, 0, len(specs))
	for _, spec := range specs {
		dev, err := f.Build(spec)
		if err != nil {
			f.logger.Warn("Skipping invalid device spec",
				zap.String("id", spec.ID),
				zap.String("driver", spec.Driver),
				zap.Int("pin", spec.Pin),
				zap.Error(err))
			continue
		}
		devices = append(devices, dev)
	}
	return devices
}

// Validate runs the factory's validation rules without constructing a
// device.
func Validate(spec Spec) error {
	v, ok := driverTable[strings.ToUpper(spec.Driver)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, spec.Driver)
	}
	return validateAddress(v, spec.Pin)
}

func validateAddress(v variant, addr int) error {
	if v.kind.BusAddressed() {
		if addr < minBusAddr || addr > maxBusAddr {
			return fmt.Errorf("%w: bus address %d outside [%d, %d]", ErrInvalidAddress, addr, minBusAddr, maxBusAddr)
		}
		return nil
	}

	if addr < 0 || addr > maxGPIOPin {
		return fmt.Errorf("%w: pin %d outside [0, %d]", ErrInvalidAddress, addr, maxGPIOPin)
	}
	if reservedPins[addr] {
		return fmt.Errorf("%w: pin %d is reserved for boot/flash", ErrInvalidAddress, addr)
	}
	actuator := v.output || v.kind == KindServo || v.kind == KindPixelStrip
	if actuator && inputOnlyPins[addr] {
		return fmt.Errorf("%w: pin %d is input-only", ErrInvalidAddress, addr)
	}
	return nil
}
