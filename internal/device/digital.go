package device

import "github.com/KevinKickass/OpenDeviceCore/internal/hal"

// digitalIO drives one GPIO pin as either a binary sensor or a binary
// actuator. Inversion maps the physical level to the logical state, so a
// pulled-up button reads ACTIVE when pressed and an active-low relay board
// switches on when the logical state is on.
type digitalIO struct {
	base
	output   bool
	inverted bool
	state    bool
}

func (d *digitalIO) Kind() Kind { return KindDigitalIO }

func (d *digitalIO) Category() Category {
	if d.output {
		return ActuatorBinary
	}
	return SensorBinary
}

func (d *digitalIO) Init() error {
	mode := hal.ModeInputPullup
	if d.output {
		mode = hal.ModeOutput
	}
	if err := d.hw.PinMode(d.address, mode); err != nil {
		return err
	}
	if d.output {
		return d.apply()
	}
	return nil
}

func (d *digitalIO) Write(cmd string, val float64) {
	if !d.output {
		return
	}
	if cmd == "toggle" {
		d.state = !d.state
	} else {
		d.state = val >= 1
	}
	d.apply() //nolint:errcheck // next read reports the pin error
}

// apply pushes the logical state to the pin, honoring inversion.
func (d *digitalIO) apply() error {
	return d.hw.DigitalWrite(d.address, d.state != d.inverted)
}

func (d *digitalIO) Read() Snapshot {
	snap := Snapshot{}
	if !d.output {
		level, err := d.hw.DigitalRead(d.address)
		if err != nil {
			snap["error"] = "read failure"
			return snap
		}
		d.state = level != d.inverted
	}
	if d.state {
		snap["val"] = 1
		snap["human"] = "ACTIVE"
	} else {
		snap["val"] = 0
		snap["human"] = "INACTIVE"
	}
	return snap
}

// analogInput samples a raw ADC pin and derives a percentage and voltage.
// Read-only; write commands are dropped.
type analogInput struct {
	base
}

func (a *analogInput) Kind() Kind         { return KindAnalogInput }
func (a *analogInput) Category() Category { return SensorValue }

func (a *analogInput) Init() error {
	return a.hw.PinMode(a.address, hal.ModeInput)
}

// 12-bit ADC against a 3.3V reference.
const (
	adcMax      = 4095
	adcRefVolts = 3.3
)

func (a *analogInput) Read() Snapshot {
	raw, err := a.hw.AnalogRead(a.address)
	if err != nil {
		return Snapshot{"error": "read failure"}
	}
	return Snapshot{
		"val":     raw,
		"percent": raw * 100 / adcMax,
		"volts":   float64(raw) * adcRefVolts / adcMax,
	}
}
