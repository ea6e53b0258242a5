package device

import (
	"math"

	"github.com/KevinKickass/OpenDeviceCore/internal/hal"
)

// climateSensor reads a DHT-class temperature/humidity sensor on a dedicated
// pin. The vendor driver answers with NaN when the sensor misses its timing
// window, which happens routinely; that surfaces as a read-failure field and
// the device stays installed.
type climateSensor struct {
	base
}

func (c *climateSensor) Kind() Kind         { return KindTemperatureDHT }
func (c *climateSensor) Category() Category { return SensorValue }

func (c *climateSensor) Init() error {
	// The DHT protocol needs no pin setup beyond what the backend does on
	// first read.
	return nil
}

func (c *climateSensor) Read() Snapshot {
	r, err := c.hw.ReadClimate(c.address)
	if err != nil || math.IsNaN(r.TempC) || math.IsNaN(r.Humidity) {
		return Snapshot{"error": "read failure"}
	}
	return Snapshot{
		"temp": r.TempC,
		"hum":  r.Humidity,
	}
}

// probeSensor reads a one-wire thermometer (DS18B20 family). The bus
// reports -127 when no probe answers; that becomes a "disconnected" error
// field with no temperature.
type probeSensor struct {
	base
}

func (p *probeSensor) Kind() Kind         { return KindTemperatureOneWire }
func (p *probeSensor) Category() Category { return SensorValue }

func (p *probeSensor) Init() error {
	return nil
}

func (p *probeSensor) Read() Snapshot {
	t, err := p.hw.ReadProbe(p.address)
	if err != nil {
		return Snapshot{"error": "read failure"}
	}
	if t <= hal.ProbeDisconnected {
		return Snapshot{"error": "disconnected"}
	}
	return Snapshot{"temp": t}
}
