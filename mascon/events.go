package mascon

import (
	"fmt"

	"github.com/goMascon/keymaps"
)

// Event is one controller input. Input sources send events on a channel and
// the controller handles them one at a time.
type Event interface {
	eventMarker()
	String() string
}

// AxisMotion reports a normalized lever sample in [-1, 1].
type AxisMotion struct {
	Value float64
}

func (AxisMotion) eventMarker()     {}
func (e AxisMotion) String() string { return fmt.Sprintf("AxisMotion(value=%.4f)", e.Value) }

// ButtonDown reports a button press.
type ButtonDown struct {
	Symbol keymaps.Symbol
}

func (ButtonDown) eventMarker()     {}
func (e ButtonDown) String() string { return fmt.Sprintf("ButtonDown(%s)", e.Symbol) }

// ButtonUp reports a button release.
type ButtonUp struct {
	Symbol keymaps.Symbol
}

func (ButtonUp) eventMarker()     {}
func (e ButtonUp) String() string { return fmt.Sprintf("ButtonUp(%s)", e.Symbol) }

// HatMotion reports the D-pad position. X is -1 (left) to 1 (right), Y is
// -1 (down) to 1 (up).
type HatMotion struct {
	X, Y int
}

func (HatMotion) eventMarker()     {}
func (e HatMotion) String() string { return fmt.Sprintf("HatMotion(x=%d, y=%d)", e.X, e.Y) }

// DeviceAdded reports that the controller was opened.
type DeviceAdded struct {
	Name string
	Path string
}

func (DeviceAdded) eventMarker() {}
func (e DeviceAdded) String() string {
	return fmt.Sprintf("DeviceAdded(name=%q, path=%s)", e.Name, e.Path)
}

// DeviceRemoved reports that the controller stopped delivering events.
type DeviceRemoved struct {
	Name string
	Err  error
}

func (DeviceRemoved) eventMarker() {}
func (e DeviceRemoved) String() string {
	return fmt.Sprintf("DeviceRemoved(name=%q, err=%v)", e.Name, e.Err)
}

// Quit stops the controller loop.
type Quit struct{}

func (Quit) eventMarker()   {}
func (Quit) String() string { return "Quit()" }
