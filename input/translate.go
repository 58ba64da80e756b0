package input

import (
	evdev "github.com/gvalkov/golang-evdev"

	"github.com/goMascon/keymaps"
	"github.com/goMascon/mascon"
)

// Input event values for EV_KEY
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Mapping describes where the controller reports each input.
type Mapping struct {
	AxisCode uint16 // EV_ABS code of the lever
	AxisMin  int32  // raw value at full brake
	AxisMax  int32  // raw value at full power
	Invert   bool   // flip the lever direction

	HatXCode uint16
	HatYCode uint16

	// Buttons maps EV_KEY codes to controller symbols.
	Buttons map[uint16]keymaps.Symbol
}

// DefaultMapping matches the Zuiki one-handle mascon as a generic HID
// joystick: the lever on ABS_Y, the D-pad on the first hat and buttons
// numbered up from BTN_TRIGGER.
func DefaultMapping() Mapping {
	index := map[keymaps.Symbol]uint16{
		keymaps.ButtonY:       0,
		keymaps.ButtonB:       1,
		keymaps.ButtonA:       2,
		keymaps.ButtonX:       3,
		keymaps.ButtonL:       4,
		keymaps.ButtonR:       5,
		keymaps.ButtonZL:      6,
		keymaps.ButtonZR:      7,
		keymaps.ButtonMinus:   8,
		keymaps.ButtonPlus:    9,
		keymaps.ButtonHome:    12,
		keymaps.ButtonCapture: 13,
	}
	buttons := make(map[uint16]keymaps.Symbol, len(index))
	for s, i := range index {
		buttons[evdev.BTN_TRIGGER+i] = s
	}
	return Mapping{
		AxisCode: evdev.ABS_Y,
		AxisMin:  0,
		AxisMax:  255,
		HatXCode: evdev.ABS_HAT0X,
		HatYCode: evdev.ABS_HAT0Y,
		Buttons:  buttons,
	}
}

// Normalize scales a raw axis value to [-1, 1].
func (m Mapping) Normalize(raw int32) float64 {
	center := (float64(m.AxisMin) + float64(m.AxisMax)) / 2
	half := (float64(m.AxisMax) - float64(m.AxisMin)) / 2
	v := (float64(raw) - center) / half
	if m.Invert {
		v = -v
	}
	return v
}

// Translator turns raw evdev events into controller events. It keeps the last
// hat position because evdev reports the two hat axes separately.
type Translator struct {
	mapping    Mapping
	hatX, hatY int
}

// NewTranslator creates a translator for the given mapping.
func NewTranslator(m Mapping) *Translator {
	return &Translator{mapping: m}
}

// Reset forgets the hat position, for use after the device reconnects.
func (t *Translator) Reset() {
	t.hatX, t.hatY = 0, 0
}

// Translate converts one raw event. The second result is false for events the
// controller does not care about (sync, misc, unmapped codes, autorepeat).
func (t *Translator) Translate(ev evdev.InputEvent) (mascon.Event, bool) {
	switch ev.Type {
	case evdev.EV_ABS:
		switch ev.Code {
		case t.mapping.AxisCode:
			return mascon.AxisMotion{Value: t.mapping.Normalize(ev.Value)}, true
		case t.mapping.HatXCode:
			t.hatX = sign(ev.Value)
			return mascon.HatMotion{X: t.hatX, Y: t.hatY}, true
		case t.mapping.HatYCode:
			// evdev reports up as negative
			t.hatY = -sign(ev.Value)
			return mascon.HatMotion{X: t.hatX, Y: t.hatY}, true
		}

	case evdev.EV_KEY:
		symbol, ok := t.mapping.Buttons[ev.Code]
		if !ok {
			return nil, false
		}
		switch ev.Value {
		case evValuePress:
			return mascon.ButtonDown{Symbol: symbol}, true
		case evValueRelease:
			return mascon.ButtonUp{Symbol: symbol}, true
		case evValueRepeat:
			return nil, false
		}
	}
	return nil, false
}

func sign(v int32) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
