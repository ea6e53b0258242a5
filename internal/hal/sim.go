package hal

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

type simPin struct {
	mode  PinMode
	level bool
}

type simBusDevice struct {
	power PowerReading
	env   EnvironmentReading
	lux   float64
	text  string
	fail  bool
}

// Simulator is an in-memory Backend. It backs the test suite and lets the
// server run on machines without real peripherals (hardware.backend: sim).
type Simulator struct {
	mu      sync.Mutex
	pins    map[int]*simPin
	analog  map[int]int
	climate map[int]ClimateReading
	probes  map[int]float64
	servos  map[int]int
	pixels  map[int]uint32
	bus     map[int]*simBusDevice
}

func NewSimulator() *Simulator {
	return &Simulator{
		pins:    make(map[int]*simPin),
		analog:  make(map[int]int),
		climate: make(map[int]ClimateReading),
		probes:  make(map[int]float64),
		servos:  make(map[int]int),
		pixels:  make(map[int]uint32),
		bus:     make(map[int]*simBusDevice),
	}
}

func (s *Simulator) pin(n int) *simPin {
	p, ok := s.pins[n]
	if !ok {
		p = &simPin{mode: ModeInput}
		s.pins[n] = p
	}
	return p
}

func (s *Simulator) PinMode(pin int, mode PinMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin(pin).mode = mode
	return nil
}

func (s *Simulator) DigitalRead(pin int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin(pin).level, nil
}

func (s *Simulator) DigitalWrite(pin int, level bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin(pin).level = level
	return nil
}

func (s *Simulator) AnalogRead(pin int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analog[pin], nil
}

func (s *Simulator) ServoAttach(pin int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servos[pin] = 0
	return nil
}

func (s *Simulator) ServoWrite(pin, angle int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servos[pin] = angle
	return nil
}

func (s *Simulator) ServoDetach(pin int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.servos, pin)
	return nil
}

func (s *Simulator) PixelInit(pin, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pixels[pin] = 0
	return nil
}

func (s *Simulator) PixelFill(pin int, color uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pixels[pin] = color
	return nil
}

func (s *Simulator) ReadClimate(pin int) (ClimateReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.climate[pin]; ok {
		return r, nil
	}
	// An absent DHT answers with NaN, same as the vendor driver.
	return ClimateReading{TempC: math.NaN(), Humidity: math.NaN()}, nil
}

func (s *Simulator) ReadProbe(pin int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.probes[pin]; ok {
		return t, nil
	}
	return ProbeDisconnected, nil
}

func (s *Simulator) BusProbe(addr int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.bus[addr]
	if !ok || d.fail {
		return fmt.Errorf("bus device 0x%02X not responding", addr)
	}
	return nil
}

func (s *Simulator) ReadPower(addr int) (PowerReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.bus[addr]
	if !ok || d.fail {
		return PowerReading{}, fmt.Errorf("bus device 0x%02X not responding", addr)
	}
	return d.power, nil
}

func (s *Simulator) ReadEnvironment(addr int) (EnvironmentReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.bus[addr]
	if !ok || d.fail {
		return EnvironmentReading{}, fmt.Errorf("bus device 0x%02X not responding", addr)
	}
	return d.env, nil
}

func (s *Simulator) ReadLight(addr int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.bus[addr]
	if !ok || d.fail {
		return 0, fmt.Errorf("bus device 0x%02X not responding", addr)
	}
	return d.lux, nil
}

func (s *Simulator) DisplayText(addr int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.bus[addr]
	if !ok || d.fail {
		return fmt.Errorf("bus device 0x%02X not responding", addr)
	}
	d.text = text
	return nil
}

func (s *Simulator) ScanBus() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	addrs := make([]int, 0, len(s.bus))
	for addr, d := range s.bus {
		if !d.fail {
			addrs = append(addrs, addr)
		}
	}
	sort.Ints(addrs)
	return addrs
}

// Test hooks. These mutate the simulated hardware from the outside, the way
// a finger on a button or a heat gun on a sensor would.

func (s *Simulator) SetPinLevel(pin int, level bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin(pin).level = level
}

func (s *Simulator) PinLevel(pin int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin(pin).level
}

func (s *Simulator) Mode(pin int) PinMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin(pin).mode
}

func (s *Simulator) SetAnalog(pin, raw int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analog[pin] = raw
}

func (s *Simulator) SetClimate(pin int, tempC, humidity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.climate[pin] = ClimateReading{TempC: tempC, Humidity: humidity}
}

func (s *Simulator) SetProbeTemperature(pin int, tempC float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes[pin] = tempC
}

func (s *Simulator) ServoAngle(pin int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.servos[pin]
}

func (s *Simulator) PixelColor(pin int) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pixels[pin]
}

// AttachBusDevice makes addr respond to probes and reads.
func (s *Simulator) AttachBusDevice(addr int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus[addr] = &simBusDevice{}
}

func (s *Simulator) SetPower(addr int, volts, amps, watts float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.bus[addr]; ok {
		d.power = PowerReading{Volts: volts, Amps: amps, Watts: watts}
	}
}

func (s *Simulator) SetEnvironment(addr int, tempC, humidity, pressureHPa float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.bus[addr]; ok {
		d.env = EnvironmentReading{TempC: tempC, Humidity: humidity, PressureHPa: pressureHPa}
	}
}

func (s *Simulator) SetLight(addr int, lux float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.bus[addr]; ok {
		d.lux = lux
	}
}

// FailBusDevice makes addr stop acknowledging, as if unplugged.
func (s *Simulator) FailBusDevice(addr int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.bus[addr]; ok {
		d.fail = true
	}
}

func (s *Simulator) DisplayedText(addr int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.bus[addr]; ok {
		return d.text
	}
	return ""
}
