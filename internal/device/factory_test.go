package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenDeviceCore/internal/hal"
)

func newTestFactory() (*Factory, *hal.Simulator) {
	sim := hal.NewSimulator()
	return NewFactory(sim, zap.NewNop()), sim
}

func TestBuildKnownDrivers(t *testing.T) {
	f, _ := newTestFactory()

	tests := []struct {
		driver   string
		pin      int
		kind     Kind
		category Category
	}{
		{"RELAY", 23, KindDigitalIO, ActuatorBinary},
		{"relay", 23, KindDigitalIO, ActuatorBinary}, // case-insensitive
		{"LIGHT_INV", 23, KindDigitalIO, ActuatorBinary},
		{"BUTTON", 4, KindDigitalIO, SensorBinary},
		{"PIR", 5, KindDigitalIO, SensorBinary},
		{"SOUND_DIG", 5, KindDigitalIO, SensorBinary},
		{"POT", 32, KindAnalogInput, SensorValue},
		{"DHT22", 4, KindTemperatureDHT, SensorValue},
		{"DS18B20", 4, KindTemperatureOneWire, SensorValue},
		{"SERVO", 13, KindServo, ActuatorValue},
		{"NEOPIXEL", 12, KindPixelStrip, ActuatorValue},
		{"INA219", 64, KindPowerMonitor, SensorValue},
		{"BME280", 118, KindEnvironmentSensor, SensorValue},
		{"BH1750", 35, KindLightMeter, SensorValue},
		{"SSD1306", 60, KindTextDisplay, DisplayDevice},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			dev, err := f.Build(Spec{ID: "d1", Driver: tt.driver, Name: "test", Pin: tt.pin})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, dev.Kind())
			assert.Equal(t, tt.category, dev.Category())
			assert.Equal(t, tt.pin, dev.Address())
		})
	}
}

func TestBuildUnknownDriverSkipped(t *testing.T) {
	f, _ := newTestFactory()

	dev, err := f.Build(Spec{ID: "x", Driver: "FLUX_CAPACITOR", Pin: 4})
	assert.Nil(t, dev)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestBuildAssignsIDWhenMissing(t *testing.T) {
	f, _ := newTestFactory()

	dev, err := f.Build(Spec{Driver: "RELAY", Pin: 23})
	require.NoError(t, err)
	assert.NotEmpty(t, dev.ID())
}

func TestGPIOPinValidation(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		pin    int
		ok     bool
	}{
		{"reserved pin 1", "BUTTON", 1, false},
		{"reserved pin 3", "BUTTON", 3, false},
		{"reserved pin 7", "BUTTON", 7, false},
		{"reserved pin 7 actuator", "RELAY", 7, false},
		{"negative pin", "BUTTON", -1, false},
		{"pin above range", "BUTTON", 40, false},
		{"input-only pin for sensor", "BUTTON", 35, true},
		{"input-only pin for relay", "RELAY", 35, false},
		{"input-only pin for servo", "SERVO", 34, false},
		{"input-only pin for pixel strip", "NEOPIXEL", 39, false},
		{"ordinary pin", "RELAY", 23, true},
		{"pin zero", "BUTTON", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Spec{ID: "d", Driver: tt.driver, Pin: tt.pin})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidAddress)
			}
		})
	}
}

func TestBusAddressValidation(t *testing.T) {
	tests := []struct {
		name string
		addr int
		ok   bool
	}{
		{"address zero", 0, false},
		{"address above range", 128, false},
		{"lowest valid", 1, true},
		{"typical INA219", 64, true},
		{"highest valid", 127, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Spec{ID: "d", Driver: "INA219", Pin: tt.addr})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidAddress)
			}
		})
	}
}

func TestBuildAllDropsInvalidEntries(t *testing.T) {
	f, _ := newTestFactory()

	specs := []Spec{
		{ID: "a", Driver: "RELAY", Pin: 23},
		{ID: "b", Driver: "BUTTON", Pin: 1}, // reserved pin
		{ID: "c", Driver: "DHT22", Pin: 4},
		{ID: "d", Driver: "NOPE", Pin: 5}, // unknown driver
		{ID: "e", Driver: "INA219", Pin: 64},
	}

	devices := f.BuildAll(specs)
	require.Len(t, devices, 3)
	assert.Equal(t, "a", devices[0].ID())
	assert.Equal(t, "c", devices[1].ID())
	assert.Equal(t, "e", devices[2].ID())
}

func TestBusInitFailureKeepsDevice(t *testing.T) {
	f, _ := newTestFactory()

	// 0x40 never attached to the simulator, so the probe fails.
	dev, err := f.Build(Spec{ID: "power", Driver: "INA219", Pin: 64})
	require.NoError(t, err)
	require.NotNil(t, dev)

	snap := dev.Read()
	msg, ok := snap.Err()
	assert.True(t, ok)
	assert.Equal(t, "read failure", msg)
}
