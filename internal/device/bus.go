package device

// Bus-addressed sensors share one pattern: Init probes the address and may
// fail without removing the device; every read goes to the hardware again,
// so a sensor that missed its probe keeps reporting read failures until it
// answers.

type powerMonitor struct {
	base
}

func (p *powerMonitor) Kind() Kind         { return KindPowerMonitor }
func (p *powerMonitor) Category() Category { return SensorValue }

func (p *powerMonitor) Init() error {
	return p.hw.BusProbe(p.address)
}

func (p *powerMonitor) Read() Snapshot {
	r, err := p.hw.ReadPower(p.address)
	if err != nil {
		return Snapshot{"error": "read failure"}
	}
	return Snapshot{
		"volts": r.Volts,
		"amps":  r.Amps,
		"watts": r.Watts,
	}
}

type environmentSensor struct {
	base
}

func (e *environmentSensor) Kind() Kind         { return KindEnvironmentSensor }
func (e *environmentSensor) Category() Category { return SensorValue }

func (e *environmentSensor) Init() error {
	return e.hw.BusProbe(e.address)
}

func (e *environmentSensor) Read() Snapshot {
	r, err := e.hw.ReadEnvironment(e.address)
	if err != nil {
		return Snapshot{"error": "read failure"}
	}
	return Snapshot{
		"temp":     r.TempC,
		"hum":      r.Humidity,
		"pressure": r.PressureHPa,
	}
}

type lightMeter struct {
	base
}

func (l *lightMeter) Kind() Kind         { return KindLightMeter }
func (l *lightMeter) Category() Category { return SensorValue }

func (l *lightMeter) Init() error {
	return l.hw.BusProbe(l.address)
}

func (l *lightMeter) Read() Snapshot {
	lux, err := l.hw.ReadLight(l.address)
	if err != nil {
		return Snapshot{"error": "read failure"}
	}
	return Snapshot{"lux": lux}
}
