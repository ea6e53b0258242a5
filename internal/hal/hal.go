package hal

// PinMode configures how a GPIO pin is driven.
type PinMode int

const (
	ModeInput PinMode = iota
	ModeInputPullup
	ModeOutput
)

func (m PinMode) String() string {
	switch m {
	case ModeInput:
		return "INPUT"
	case ModeInputPullup:
		return "INPUT_PULLUP"
	case ModeOutput:
		return "OUTPUT"
	default:
		return "UNKNOWN"
	}
}

// ClimateReading is a combined temperature/humidity sample from a DHT-class
// sensor. Values may be NaN when the sensor did not answer.
type ClimateReading struct {
	TempC    float64
	Humidity float64
}

// PowerReading is one sample from a shunt power monitor.
type PowerReading struct {
	Volts float64
	Amps  float64
	Watts float64
}

// EnvironmentReading is one sample from a combined environment sensor.
type EnvironmentReading struct {
	TempC       float64
	Humidity    float64
	PressureHPa float64
}

// Backend is the hardware access contract the device drivers run against.
// Implementations own all protocol-level communication (GPIO registers,
// one-wire timing, I2C transactions); the core never talks to hardware
// directly. Calls are expected to be short and non-interruptible, so no
// context is threaded through.
type Backend interface {
	// GPIO
	PinMode(pin int, mode PinMode) error
	DigitalRead(pin int) (bool, error)
	DigitalWrite(pin int, level bool) error
	AnalogRead(pin int) (int, error)

	// PWM actuators
	ServoAttach(pin int) error
	ServoWrite(pin, angle int) error
	ServoDetach(pin int) error
	PixelInit(pin, count int) error
	PixelFill(pin int, color uint32) error

	// Dedicated-pin sensors
	ReadClimate(pin int) (ClimateReading, error)
	// ReadProbe returns the raw one-wire temperature. A disconnected probe
	// answers with the bus sentinel -127, not an error.
	ReadProbe(pin int) (float64, error)

	// Bus peripherals
	BusProbe(addr int) error
	ReadPower(addr int) (PowerReading, error)
	ReadEnvironment(addr int) (EnvironmentReading, error)
	ReadLight(addr int) (float64, error)
	DisplayText(addr int, text string) error

	// ScanBus enumerates responsive bus addresses in ascending order.
	ScanBus() []int
}

// ProbeDisconnected is the raw value a one-wire thermometer reports when no
// probe answers on the bus.
const ProbeDisconnected = -127.0
