package device

// servo drives a PWM servo on a dedicated pin. Angles are clamped to the
// mechanical range; the snapshot reports the last commanded angle since the
// hardware cannot be read back.
type servo struct {
	base
	angle int
}

func (s *servo) Kind() Kind         { return KindServo }
func (s *servo) Category() Category { return ActuatorValue }

func (s *servo) Init() error {
	return s.hw.ServoAttach(s.address)
}

func (s *servo) Write(cmd string, val float64) {
	angle := int(val)
	if angle < 0 {
		angle = 0
	}
	if angle > 180 {
		angle = 180
	}
	s.angle = angle
	s.hw.ServoWrite(s.address, angle) //nolint:errcheck // command path stays silent
}

func (s *servo) Read() Snapshot {
	return Snapshot{"angle": s.angle}
}

func (s *servo) Close() error {
	return s.hw.ServoDetach(s.address)
}

// Fixed strip length, matching the boards this ships on.
const pixelCount = 12

// pixelStrip fills an addressable LED strip with one encoded color. The
// encoding (HSV hue word) is the backend's concern.
type pixelStrip struct {
	base
}

func (p *pixelStrip) Kind() Kind         { return KindPixelStrip }
func (p *pixelStrip) Category() Category { return ActuatorValue }

func (p *pixelStrip) Init() error {
	return p.hw.PixelInit(p.address, pixelCount)
}

func (p *pixelStrip) Write(cmd string, val float64) {
	p.hw.PixelFill(p.address, uint32(val)) //nolint:errcheck // command path stays silent
}

func (p *pixelStrip) Read() Snapshot {
	return Snapshot{"status": "ready"}
}
