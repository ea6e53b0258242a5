package device

import "strconv"

// Character width of one display line. Longer text is cut, not wrapped.
const displayWidth = 16

// textDisplay renders text on a bus-addressed character display. A numeric
// write command renders the value, so rules can target a display directly.
type textDisplay struct {
	base
	lastText string
}

func (d *textDisplay) Kind() Kind         { return KindTextDisplay }
func (d *textDisplay) Category() Category { return DisplayDevice }

func (d *textDisplay) Init() error {
	return d.hw.BusProbe(d.address)
}

func (d *textDisplay) Write(cmd string, val float64) {
	d.WriteText(strconv.FormatFloat(val, 'f', 1, 64))
}

func (d *textDisplay) WriteText(text string) {
	// Width is in characters, not bytes; cutting mid-rune would hand the
	// backend invalid UTF-8.
	if runes := []rune(text); len(runes) > displayWidth {
		text = string(runes[:displayWidth])
	}
	d.lastText = text
	d.hw.DisplayText(d.address, text) //nolint:errcheck // next read reports the bus error
}

func (d *textDisplay) Read() Snapshot {
	return Snapshot{"text": d.lastText}
}
