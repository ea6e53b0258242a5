package device

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/OpenDeviceCore/internal/hal"
)

func build(t *testing.T, f *Factory, spec Spec) Device {
	t.Helper()
	dev, err := f.Build(spec)
	require.NoError(t, err)
	return dev
}

func TestDigitalSensorInversion(t *testing.T) {
	f, sim := newTestFactory()
	// BUTTON is a pulled-up contact: pressed pulls the pin LOW.
	dev := build(t, f, Spec{ID: "btn", Driver: "BUTTON", Pin: 4})

	sim.SetPinLevel(4, false)
	snap := dev.Read()
	assert.Equal(t, 1, snap["val"])
	assert.Equal(t, "ACTIVE", snap["human"])

	sim.SetPinLevel(4, true)
	snap = dev.Read()
	assert.Equal(t, 0, snap["val"])
	assert.Equal(t, "INACTIVE", snap["human"])
}

func TestDigitalSensorStraight(t *testing.T) {
	f, sim := newTestFactory()
	dev := build(t, f, Spec{ID: "pir", Driver: "PIR", Pin: 5})

	sim.SetPinLevel(5, true)
	assert.Equal(t, "ACTIVE", dev.Read()["human"])

	sim.SetPinLevel(5, false)
	assert.Equal(t, "INACTIVE", dev.Read()["human"])
}

func TestDigitalActuatorWriteAndToggle(t *testing.T) {
	f, sim := newTestFactory()
	dev := build(t, f, Spec{ID: "relay", Driver: "RELAY", Pin: 23})

	assert.Equal(t, hal.ModeOutput, sim.Mode(23))

	dev.Write("set", 1)
	assert.True(t, sim.PinLevel(23))
	assert.Equal(t, 1, dev.Read()["val"])

	dev.Write("set", 0)
	assert.False(t, sim.PinLevel(23))

	dev.Write("toggle", 0)
	assert.True(t, sim.PinLevel(23))
	dev.Write("toggle", 0)
	assert.False(t, sim.PinLevel(23))
}

func TestInvertedActuatorDrivesPinLow(t *testing.T) {
	f, sim := newTestFactory()
	dev := build(t, f, Spec{ID: "light", Driver: "LIGHT_INV", Pin: 23})

	// Logical off after init leaves the pin HIGH on an active-low board.
	assert.True(t, sim.PinLevel(23))

	dev.Write("set", 1)
	assert.False(t, sim.PinLevel(23))
	assert.Equal(t, 1, dev.Read()["val"])
}

func TestSensorRejectsWrites(t *testing.T) {
	f, sim := newTestFactory()
	dev := build(t, f, Spec{ID: "btn", Driver: "BUTTON", Pin: 4})

	sim.SetPinLevel(4, true)
	dev.Write("set", 1)
	dev.WriteText("hello")

	// Neither write touched the pin.
	assert.True(t, sim.PinLevel(4))
}

func TestAnalogInputScaling(t *testing.T) {
	f, sim := newTestFactory()
	dev := build(t, f, Spec{ID: "pot", Driver: "POT", Pin: 32})

	sim.SetAnalog(32, 4095)
	snap := dev.Read()
	assert.Equal(t, 4095, snap["val"])
	assert.Equal(t, 100, snap["percent"])
	assert.InDelta(t, 3.3, snap["volts"], 0.001)

	sim.SetAnalog(32, 0)
	snap = dev.Read()
	assert.Equal(t, 0, snap["percent"])
	assert.InDelta(t, 0.0, snap["volts"], 0.001)
}

func TestClimateSensorReadFailure(t *testing.T) {
	f, sim := newTestFactory()
	dev := build(t, f, Spec{ID: "dht", Driver: "DHT22", Pin: 4})

	// No climate configured: the simulated DHT answers NaN.
	snap := dev.Read()
	msg, ok := snap.Err()
	require.True(t, ok)
	assert.Equal(t, "read failure", msg)
	assert.NotContains(t, snap, "temp")

	sim.SetClimate(4, 21.5, 48)
	snap = dev.Read()
	_, hasErr := snap.Err()
	assert.False(t, hasErr)
	assert.Equal(t, 21.5, snap["temp"])
	assert.Equal(t, 48.0, snap["hum"])
}

func TestClimateSensorPartialNaN(t *testing.T) {
	f, sim := newTestFactory()
	dev := build(t, f, Spec{ID: "dht", Driver: "DHT11", Pin: 4})

	sim.SetClimate(4, 20, math.NaN())
	snap := dev.Read()
	_, ok := snap.Err()
	assert.True(t, ok)
}

func TestProbeSensorDisconnectedSentinel(t *testing.T) {
	f, sim := newTestFactory()
	dev := build(t, f, Spec{ID: "tank", Driver: "DS18B20", Pin: 4})

	sim.SetProbeTemperature(4, -127.0)
	snap := dev.Read()
	msg, ok := snap.Err()
	require.True(t, ok)
	assert.Equal(t, "disconnected", msg)
	assert.NotContains(t, snap, "temp")

	sim.SetProbeTemperature(4, 18.25)
	snap = dev.Read()
	assert.Equal(t, 18.25, snap["temp"])
}

func TestServoClampsAngle(t *testing.T) {
	f, sim := newTestFactory()
	dev := build(t, f, Spec{ID: "srv", Driver: "SERVO", Pin: 13})

	dev.Write("set", 90)
	assert.Equal(t, 90, sim.ServoAngle(13))
	assert.Equal(t, 90, dev.Read()["angle"])

	dev.Write("set", 300)
	assert.Equal(t, 180, sim.ServoAngle(13))

	dev.Write("set", -45)
	assert.Equal(t, 0, sim.ServoAngle(13))
}

func TestServoCloseDetaches(t *testing.T) {
	f, sim := newTestFactory()
	dev := build(t, f, Spec{ID: "srv", Driver: "SERVO", Pin: 13})

	dev.Write("set", 45)
	require.NoError(t, dev.Close())
	assert.Equal(t, 0, sim.ServoAngle(13))
}

func TestPixelStripFill(t *testing.T) {
	f, sim := newTestFactory()
	dev := build(t, f, Spec{ID: "led", Driver: "NEOPIXEL", Pin: 12})

	dev.Write("set", 43690)
	assert.Equal(t, uint32(43690), sim.PixelColor(12))
	assert.Equal(t, "ready", dev.Read()["status"])
}

func TestPowerMonitorReading(t *testing.T) {
	f, sim := newTestFactory()
	sim.AttachBusDevice(64)
	sim.SetPower(64, 12.1, 0.42, 5.08)

	dev := build(t, f, Spec{ID: "psu", Driver: "INA219", Pin: 64})
	snap := dev.Read()
	assert.Equal(t, 12.1, snap["volts"])
	assert.Equal(t, 0.42, snap["amps"])
	assert.Equal(t, 5.08, snap["watts"])
}

func TestEnvironmentSensorUnplugged(t *testing.T) {
	f, sim := newTestFactory()
	sim.AttachBusDevice(118)
	sim.SetEnvironment(118, 22.0, 45.0, 1013.2)

	dev := build(t, f, Spec{ID: "env", Driver: "BME280", Pin: 118})
	snap := dev.Read()
	assert.Equal(t, 1013.2, snap["pressure"])

	sim.FailBusDevice(118)
	snap = dev.Read()
	msg, ok := snap.Err()
	require.True(t, ok)
	assert.Equal(t, "read failure", msg)
}

func TestLightMeterReading(t *testing.T) {
	f, sim := newTestFactory()
	sim.AttachBusDevice(35)
	sim.SetLight(35, 320.5)

	dev := build(t, f, Spec{ID: "lux", Driver: "BH1750", Pin: 35})
	assert.Equal(t, 320.5, dev.Read()["lux"])
}

func TestTextDisplayTruncatesToLineWidth(t *testing.T) {
	f, sim := newTestFactory()
	sim.AttachBusDevice(60)

	dev := build(t, f, Spec{ID: "oled", Driver: "SSD1306", Pin: 60})

	long := strings.Repeat("x", 40)
	dev.WriteText(long)
	assert.Len(t, sim.DisplayedText(60), 16)
	assert.Equal(t, sim.DisplayedText(60), dev.Read()["text"])
}

func TestTextDisplayTruncatesByRunes(t *testing.T) {
	f, sim := newTestFactory()
	sim.AttachBusDevice(60)

	dev := build(t, f, Spec{ID: "oled", Driver: "SSD1306", Pin: 60})

	// 16 characters but 17 bytes; a byte cut would split the accent.
	dev.WriteText("Ballon chauffe-é")
	got := sim.DisplayedText(60)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Ballon chauffe-é", got)

	dev.WriteText("Température élevée dans la cave")
	got = sim.DisplayedText(60)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 16, utf8.RuneCountInString(got))
	assert.Equal(t, "Température élev", got)
}

func TestTextDisplayRendersNumericCommand(t *testing.T) {
	f, sim := newTestFactory()
	sim.AttachBusDevice(60)

	dev := build(t, f, Spec{ID: "oled", Driver: "SSD1306", Pin: 60})
	dev.Write("set", 21.54)
	assert.Equal(t, "21.5", sim.DisplayedText(60))
}

func TestSnapshotFloatConversions(t *testing.T) {
	snap := Snapshot{"a": 1, "b": 2.5, "c": "nope", "d": int64(7)}

	v, ok := snap.Float("a")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = snap.Float("b")
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	_, ok = snap.Float("c")
	assert.False(t, ok)

	v, ok = snap.Float("d")
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)

	_, ok = snap.Float("missing")
	assert.False(t, ok)
}
