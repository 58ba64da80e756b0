package mascon

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/bendahl/uinput"

	"github.com/goMascon/keymaps"
	"github.com/goMascon/notch"
)

// op is one call recorded by recordingSink.
type op struct {
	kind string // "press", "down" or "up"
	key  int
}

// recordingSink is a test double for the virtual keyboard
type recordingSink struct {
	ops  []op
	fail error

	// failDownAt makes the n-th KeyDown call fail when set.
	failDownAt int
	downs      int
}

func (r *recordingSink) record(kind string, key int) error {
	if r.fail != nil {
		return r.fail
	}
	r.ops = append(r.ops, op{kind, key})
	return nil
}

func (r *recordingSink) KeyPress(key int) error { return r.record("press", key) }
func (r *recordingSink) KeyDown(key int) error {
	r.downs++
	if r.failDownAt != 0 && r.downs == r.failDownAt {
		return errors.New("write /dev/uinput: no such device")
	}
	return r.record("down", key)
}

func (r *recordingSink) KeyUp(key int) error { return r.record("up", key) }

func (r *recordingSink) reset() { r.ops = nil }

func presses(key, n int) []op {
	ops := make([]op, n)
	for i := range ops {
		ops[i] = op{"press", key}
	}
	return ops
}

func newTestController() (*Controller, *recordingSink) {
	sink := &recordingSink{}
	return New(sink, keymaps.GetZuikiKeyMapping(), nil), sink
}

// axisFor returns a sample in the middle of a notch's band.
var axisFor = map[notch.Notch]float64{
	notch.P5: 1.0,
	notch.P4: 0.8,
	notch.P3: 0.6,
	notch.P2: 0.45,
	notch.P1: 0.25,
	notch.N:  0.0,
	notch.B1: -0.2,
	notch.B2: -0.3,
	notch.B3: -0.4,
	notch.B4: -0.55,
	notch.B5: -0.65,
	notch.B6: -0.75,
	notch.B7: -0.85,
	notch.B8: -1.0,
}

func TestController_InitialState(t *testing.T) {
	c, _ := newTestController()
	if c.Notch() != notch.N {
		t.Errorf("initial notch = %v, want N", c.Notch())
	}
	if len(c.Held()) != 0 {
		t.Errorf("initial held = %v, want empty", c.Held())
	}
}

func TestController_AxisScenarios(t *testing.T) {
	tests := []struct {
		name  string
		from  notch.Notch
		value float64
		want  []op
		to    notch.Notch
	}{
		{"power up", notch.P2, axisFor[notch.P5], presses(uinput.KeyZ, 3), notch.P5},
		{"power to neutral", notch.P2, axisFor[notch.N], presses(uinput.KeyS, 1), notch.N},
		{"power to brake", notch.P2, axisFor[notch.B5],
			append(presses(uinput.KeyS, 1), presses(uinput.KeyQ, 5)...), notch.B5},
		{"same notch", notch.B3, -0.45, nil, notch.B3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sink := newTestController()
			if err := c.OnAxis(axisFor[tt.from]); err != nil {
				t.Fatal(err)
			}
			sink.reset()

			if err := c.OnAxis(tt.value); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(sink.ops, tt.want) {
				t.Errorf("ops = %v, want %v", sink.ops, tt.want)
			}
			if c.Notch() != tt.to {
				t.Errorf("notch = %v, want %v", c.Notch(), tt.to)
			}
		})
	}
}

func TestController_EmergencyViaAxisWithInterlock(t *testing.T) {
	c, sink := newTestController()
	_ = c.OnAxis(axisFor[notch.B5])
	if err := c.OnButtonDown(keymaps.ButtonZL); err != nil {
		t.Fatal(err)
	}
	if len(sink.ops) != 5 {
		t.Fatalf("ZL at B5 should not press anything, ops = %v", sink.ops)
	}
	sink.reset()

	if err := c.OnAxis(-1.000030518509476); err != nil {
		t.Fatal(err)
	}
	if want := presses(uinput.Key1, 1); !reflect.DeepEqual(sink.ops, want) {
		t.Errorf("ops = %v, want %v", sink.ops, want)
	}
	if c.Notch() != notch.EB {
		t.Errorf("notch = %v, want EB", c.Notch())
	}

	// Staying at the bottom does not repeat the EB key.
	sink.reset()
	_ = c.OnAxis(-0.99)
	if len(sink.ops) != 0 {
		t.Errorf("repeated EB sample pressed %v", sink.ops)
	}
}

func TestController_EmergencyToPower(t *testing.T) {
	c, sink := newTestController()
	_ = c.OnButtonDown(keymaps.ButtonZL)
	_ = c.OnAxis(-1.0)
	if c.Notch() != notch.EB {
		t.Fatalf("notch = %v, want EB", c.Notch())
	}
	sink.reset()

	_ = c.OnAxis(axisFor[notch.P2])
	want := append(presses(uinput.KeyS, 1), presses(uinput.KeyZ, 2)...)
	if !reflect.DeepEqual(sink.ops, want) {
		t.Errorf("ops = %v, want %v", sink.ops, want)
	}
	if c.Notch() != notch.P2 {
		t.Errorf("notch = %v, want P2", c.Notch())
	}
}

func TestController_ZLDetentAtB8(t *testing.T) {
	c, sink := newTestController()
	_ = c.OnAxis(axisFor[notch.B8])
	if c.Notch() != notch.B8 {
		t.Fatalf("notch = %v, want B8", c.Notch())
	}
	sink.reset()

	if err := c.OnButtonDown(keymaps.ButtonZL); err != nil {
		t.Fatal(err)
	}
	if want := presses(uinput.Key1, 1); !reflect.DeepEqual(sink.ops, want) {
		t.Errorf("ZL down ops = %v, want %v", sink.ops, want)
	}
	if c.Notch() != notch.EB || !c.EmergencyHeld() {
		t.Fatalf("notch = %v held = %v, want EB with interlock", c.Notch(), c.EmergencyHeld())
	}

	// The quantizer agrees with the button detent.
	sink.reset()
	_ = c.OnAxis(axisFor[notch.B8])
	if len(sink.ops) != 0 {
		t.Errorf("axis at bottom after ZL detent pressed %v", sink.ops)
	}

	sink.reset()
	if err := c.OnButtonUp(keymaps.ButtonZL); err != nil {
		t.Fatal(err)
	}
	if want := presses(uinput.KeyZ, 1); !reflect.DeepEqual(sink.ops, want) {
		t.Errorf("ZL up ops = %v, want %v", sink.ops, want)
	}
	if c.Notch() != notch.B8 || c.EmergencyHeld() {
		t.Errorf("notch = %v held = %v, want B8 without interlock", c.Notch(), c.EmergencyHeld())
	}
}

func TestController_ZLAwayFromB8(t *testing.T) {
	c, sink := newTestController()
	_ = c.OnAxis(axisFor[notch.P3])
	sink.reset()

	_ = c.OnButtonDown(keymaps.ButtonZL)
	_ = c.OnButtonDown(keymaps.ButtonZL)
	_ = c.OnButtonUp(keymaps.ButtonZL)
	if len(sink.ops) != 0 {
		t.Errorf("ZL away from B8 pressed %v", sink.ops)
	}
	if c.Notch() != notch.P3 {
		t.Errorf("notch = %v, want P3", c.Notch())
	}
	if err := c.OnButtonUp(keymaps.ButtonZL); !errors.Is(err, ErrNotPressed) {
		t.Errorf("second ZL up error = %v, want ErrNotPressed", err)
	}
}

func TestController_NaNSampleIgnored(t *testing.T) {
	c, sink := newTestController()
	_ = c.OnAxis(axisFor[notch.P1])
	sink.reset()

	if err := c.OnAxis(math.NaN()); err != nil {
		t.Fatal(err)
	}
	if len(sink.ops) != 0 || c.Notch() != notch.P1 {
		t.Errorf("NaN changed state: ops=%v notch=%v", sink.ops, c.Notch())
	}
}

func TestController_ButtonChords(t *testing.T) {
	c, sink := newTestController()

	if err := c.OnButtonDown(keymaps.ButtonHome); err != nil {
		t.Fatal(err)
	}
	if err := c.OnButtonDown(keymaps.ButtonHome); err != nil {
		t.Fatal(err)
	}
	if err := c.OnButtonUp(keymaps.ButtonHome); err != nil {
		t.Fatal(err)
	}

	want := []op{
		{"down", uinput.KeyLeftmeta},
		{"down", uinput.KeyG},
		{"up", uinput.KeyG},
		{"up", uinput.KeyLeftmeta},
	}
	if !reflect.DeepEqual(sink.ops, want) {
		t.Errorf("ops = %v, want %v", sink.ops, want)
	}
	if len(c.Held()) != 0 {
		t.Errorf("held = %v, want empty", c.Held())
	}
}

func TestController_DuplicateButtonUp(t *testing.T) {
	c, _ := newTestController()
	_ = c.OnButtonDown(keymaps.ButtonA)
	_ = c.OnButtonUp(keymaps.ButtonA)
	if err := c.OnButtonUp(keymaps.ButtonA); !errors.Is(err, ErrNotPressed) {
		t.Errorf("error = %v, want ErrNotPressed", err)
	}
}

func TestController_UnknownSymbol(t *testing.T) {
	c, sink := newTestController()
	err := c.OnButtonDown(keymaps.Symbol("TURBO"))
	if !errors.Is(err, keymaps.ErrUnknownSymbol) {
		t.Fatalf("error = %v, want ErrUnknownSymbol", err)
	}
	if len(sink.ops) != 0 || len(c.Held()) != 0 {
		t.Errorf("unknown symbol changed state: ops=%v held=%v", sink.ops, c.Held())
	}
}

func TestController_SymbolActiveDeduplicates(t *testing.T) {
	c, sink := newTestController()
	_ = c.OnSymbolActive(keymaps.DpadLeft, true)
	_ = c.OnSymbolActive(keymaps.DpadLeft, true)
	if want := []op{{"down", uinput.KeyB}}; !reflect.DeepEqual(sink.ops, want) {
		t.Errorf("ops = %v, want %v", sink.ops, want)
	}

	sink.reset()
	_ = c.OnSymbolActive(keymaps.DpadLeft, false)
	_ = c.OnSymbolActive(keymaps.DpadLeft, false)
	if want := []op{{"up", uinput.KeyB}}; !reflect.DeepEqual(sink.ops, want) {
		t.Errorf("ops = %v, want %v", sink.ops, want)
	}
}

func TestController_HatMotion(t *testing.T) {
	c, sink := newTestController()

	steps := []struct {
		x, y int
		want []op
		held []keymaps.Symbol
	}{
		{0, 1, []op{{"down", uinput.KeyUp}}, []keymaps.Symbol{keymaps.DpadUp}},
		{1, 1, []op{{"down", uinput.KeyK}}, []keymaps.Symbol{keymaps.DpadRight, keymaps.DpadUp}},
		{1, 0, []op{{"up", uinput.KeyUp}}, []keymaps.Symbol{keymaps.DpadRight}},
		{-1, -1, []op{{"down", uinput.KeyDown}, {"down", uinput.KeyB}, {"up", uinput.KeyK}},
			[]keymaps.Symbol{keymaps.DpadDown, keymaps.DpadLeft}},
		{-1, -1, nil, []keymaps.Symbol{keymaps.DpadDown, keymaps.DpadLeft}},
		{0, 0, []op{{"up", uinput.KeyDown}, {"up", uinput.KeyB}}, []keymaps.Symbol{}},
	}

	for i, s := range steps {
		sink.reset()
		if err := c.Handle(HatMotion{X: s.x, Y: s.y}); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !reflect.DeepEqual(sink.ops, s.want) {
			t.Errorf("step %d (%d,%d): ops = %v, want %v", i, s.x, s.y, sink.ops, s.want)
		}
		if !reflect.DeepEqual(c.Held(), s.held) {
			t.Errorf("step %d: held = %v, want %v", i, c.Held(), s.held)
		}
	}
}

func TestController_SinkFailureKeepsNotch(t *testing.T) {
	c, sink := newTestController()
	sink.fail = errors.New("uinput closed")
	if err := c.OnAxis(axisFor[notch.P3]); err == nil {
		t.Fatal("expected error")
	}
	if c.Notch() != notch.N {
		t.Errorf("notch = %v, want N after failed move", c.Notch())
	}
}

func TestController_PartialChordReleased(t *testing.T) {
	c, sink := newTestController()
	sink.failDownAt = 2

	if err := c.OnButtonDown(keymaps.ButtonHome); err == nil {
		t.Fatal("expected error")
	}
	if len(c.Held()) != 0 {
		t.Errorf("held = %v, want empty", c.Held())
	}
	if err := c.ReleaseAll(); err != nil {
		t.Fatal(err)
	}
	want := []op{
		{"down", uinput.KeyLeftmeta},
		{"up", uinput.KeyLeftmeta},
	}
	if !reflect.DeepEqual(sink.ops, want) {
		t.Errorf("ops = %v, want %v", sink.ops, want)
	}
}

func TestController_ReleaseAll(t *testing.T) {
	c, sink := newTestController()
	_ = c.OnButtonDown(keymaps.ButtonCapture)
	_ = c.OnButtonDown(keymaps.ButtonZL)
	_ = c.OnHat(0, 1)
	sink.reset()

	if err := c.ReleaseAll(); err != nil {
		t.Fatal(err)
	}
	want := []op{
		{"up", uinput.Key1},
		{"up", uinput.KeyLeftmeta},
		{"up", uinput.KeyUp},
	}
	if !reflect.DeepEqual(sink.ops, want) {
		t.Errorf("ops = %v, want %v", sink.ops, want)
	}
	if len(c.Held()) != 0 {
		t.Errorf("held = %v, want empty", c.Held())
	}
}

func TestController_DeviceRemovedReleasesKeys(t *testing.T) {
	c, sink := newTestController()
	_ = c.Handle(ButtonDown{Symbol: keymaps.ButtonY})
	sink.reset()

	if err := c.Handle(DeviceRemoved{Name: "mascon", Err: errors.New("no such device")}); err != nil {
		t.Fatal(err)
	}
	if want := []op{{"up", uinput.KeySpace}}; !reflect.DeepEqual(sink.ops, want) {
		t.Errorf("ops = %v, want %v", sink.ops, want)
	}
}

func TestController_Run(t *testing.T) {
	c, sink := newTestController()
	events := make(chan Event, 8)
	events <- DeviceAdded{Name: "mascon", Path: "/dev/input/event3"}
	events <- AxisMotion{Value: 0.45}
	events <- ButtonDown{Symbol: keymaps.ButtonB}
	events <- ButtonUp{Symbol: keymaps.ButtonB}
	events <- Quit{}
	events <- AxisMotion{Value: 1.0}

	if err := c.Run(context.Background(), events); err != nil {
		t.Fatal(err)
	}
	want := append(presses(uinput.KeyZ, 2), op{"down", uinput.KeyEnter}, op{"up", uinput.KeyEnter})
	if !reflect.DeepEqual(sink.ops, want) {
		t.Errorf("ops = %v, want %v", sink.ops, want)
	}
	if c.Notch() != notch.P2 {
		t.Errorf("notch = %v, want P2 (events after Quit must be ignored)", c.Notch())
	}
}

func TestController_RunStopsOnError(t *testing.T) {
	c, _ := newTestController()
	events := make(chan Event, 1)
	events <- ButtonUp{Symbol: keymaps.ButtonX}

	err := c.Run(context.Background(), events)
	if !errors.Is(err, ErrNotPressed) {
		t.Fatalf("error = %v, want ErrNotPressed", err)
	}
}

func TestController_RunStopsOnCancel(t *testing.T) {
	c, _ := newTestController()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, make(chan Event)) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
