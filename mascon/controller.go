package mascon

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/goMascon/keymaps"
	"github.com/goMascon/keysink"
	"github.com/goMascon/notch"
)

// ErrNotPressed is returned when a release arrives for a symbol that is not
// held. It means edge tracking got out of sync with the device.
var ErrNotPressed = errors.New("symbol is not pressed")

// Controller owns the emulated lever position and the set of held symbols,
// and turns controller events into key events on a sink.
//
// A Controller is not safe for concurrent use; feed it from one goroutine.
type Controller struct {
	sink   keysink.Sink
	keys   keymaps.KeyMapping
	logger *slog.Logger

	notch   notch.Notch
	pressed map[keymaps.Symbol]struct{}
}

// New creates a controller with the lever at N and nothing held.
func New(sink keysink.Sink, keys keymaps.KeyMapping, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		sink:    sink,
		keys:    keys,
		logger:  logger,
		notch:   notch.N,
		pressed: make(map[keymaps.Symbol]struct{}),
	}
}

// Notch returns the committed lever position.
func (c *Controller) Notch() notch.Notch { return c.notch }

// EmergencyHeld reports whether the EB interlock button is held.
func (c *Controller) EmergencyHeld() bool { return c.isPressed(keymaps.ButtonZL) }

// Held returns the held symbols in sorted order.
func (c *Controller) Held() []keymaps.Symbol {
	held := make([]keymaps.Symbol, 0, len(c.pressed))
	for s := range c.pressed {
		held = append(held, s)
	}
	sort.Slice(held, func(i, j int) bool { return held[i] < held[j] })
	return held
}

// Handle processes a single event to completion.
func (c *Controller) Handle(ev Event) error {
	var err error
	switch e := ev.(type) {
	case AxisMotion:
		err = c.OnAxis(e.Value)
	case ButtonDown:
		err = c.OnButtonDown(e.Symbol)
	case ButtonUp:
		err = c.OnButtonUp(e.Symbol)
	case HatMotion:
		err = c.OnHat(e.X, e.Y)
	case DeviceAdded:
		c.logger.Info("controller connected", "name", e.Name, "path", e.Path)
	case DeviceRemoved:
		c.logger.Warn("controller disconnected", "name", e.Name, "error", e.Err)
		err = c.ReleaseAll()
	case Quit:
	default:
		c.logger.Debug("ignoring event", "event", ev)
	}
	if err != nil {
		return errors.Wrapf(err, "handle %s", ev)
	}

	c.logger.Debug("state", "event", ev, "notch", c.notch, "held", c.Held())
	return nil
}

// Run handles events until ctx is canceled, the channel is closed or a Quit
// event arrives. Errors from Handle stop the loop.
func (c *Controller) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("controller stopping (context canceled)")
			return nil

		case ev, ok := <-events:
			if !ok {
				c.logger.Info("controller stopping (events channel closed)")
				return nil
			}
			if err := c.Handle(ev); err != nil {
				return err
			}
			if _, quit := ev.(Quit); quit {
				c.logger.Info("controller stopping (quit)")
				return nil
			}
		}
	}
}

// OnAxis quantizes a lever sample and moves the emulated lever to it.
// NaN samples are dropped.
func (c *Controller) OnAxis(value float64) error {
	if math.IsNaN(value) {
		c.logger.Debug("dropping NaN axis sample")
		return nil
	}
	target := notch.Quantize(value, c.EmergencyHeld())
	return c.moveTo(target)
}

// moveTo runs the transition plan from the committed notch to target and
// commits target once every key has been sent.
func (c *Controller) moveTo(target notch.Notch) error {
	plan, next := notch.Transition(c.notch, target)
	if len(plan) == 0 {
		return nil
	}
	if err := c.apply(plan); err != nil {
		return errors.Wrapf(err, "move %s -> %s", c.notch, target)
	}
	c.logger.Debug("notch", "from", c.notch, "to", next, "plan", plan)
	c.notch = next
	return nil
}

func (c *Controller) apply(plan notch.Plan) error {
	for _, step := range plan {
		key, err := c.keys.LeverKey(step.Action)
		if err != nil {
			return err
		}
		if err := keysink.PressN(c.sink, key, step.Repeat); err != nil {
			return errors.Wrapf(err, "%s", step)
		}
	}
	return nil
}

// OnButtonDown handles a button press. ZL drives the EB interlock; other
// buttons hold their mapped chord.
func (c *Controller) OnButtonDown(s keymaps.Symbol) error {
	if s == keymaps.ButtonZL {
		return c.emergencyDown()
	}
	if c.isPressed(s) {
		return nil
	}
	return c.hold(s)
}

// OnButtonUp handles a button release.
func (c *Controller) OnButtonUp(s keymaps.Symbol) error {
	if s == keymaps.ButtonZL {
		return c.emergencyUp()
	}
	if !c.isPressed(s) {
		return errors.Wrapf(ErrNotPressed, "%s", s)
	}
	return c.release(s)
}

// OnHat polls the four D-pad directions against the hat position.
func (c *Controller) OnHat(x, y int) error {
	active := []struct {
		symbol keymaps.Symbol
		on     bool
	}{
		{keymaps.DpadUp, y == 1},
		{keymaps.DpadDown, y == -1},
		{keymaps.DpadLeft, x == -1},
		{keymaps.DpadRight, x == 1},
	}
	for _, d := range active {
		if err := c.OnSymbolActive(d.symbol, d.on); err != nil {
			return err
		}
	}
	return nil
}

// OnSymbolActive converts a polled level into edges: the chord goes down when
// the symbol becomes active and up when it becomes inactive. Repeated levels
// do nothing.
func (c *Controller) OnSymbolActive(s keymaps.Symbol, active bool) error {
	switch held := c.isPressed(s); {
	case active && !held:
		return c.hold(s)
	case !active && held:
		return c.release(s)
	}
	return nil
}

func (c *Controller) hold(s keymaps.Symbol) error {
	keys, err := c.keys.Chord(s)
	if err != nil {
		return err
	}
	for i, k := range keys {
		if err := c.sink.KeyDown(k); err != nil {
			// Undo the part of the chord that went down; s is not recorded
			// as held, so nothing else would release it.
			for j := i - 1; j >= 0; j-- {
				if upErr := c.sink.KeyUp(keys[j]); upErr != nil {
					c.logger.Warn("failed to release partial chord", "symbol", s, "key", keymaps.KeyName(keys[j]), "error", upErr)
				}
			}
			return errors.Wrapf(err, "key down %s for %s", keymaps.KeyName(k), s)
		}
	}
	c.pressed[s] = struct{}{}
	return nil
}

func (c *Controller) release(s keymaps.Symbol) error {
	keys, err := c.keys.Chord(s)
	if err != nil {
		return err
	}
	for i := len(keys) - 1; i >= 0; i-- {
		if err := c.sink.KeyUp(keys[i]); err != nil {
			return errors.Wrapf(err, "key up %s for %s", keymaps.KeyName(keys[i]), s)
		}
	}
	return c.forget(s)
}

// emergencyDown engages the interlock. With the lever already at B8 the EB
// detent is entered right away, as the quantizer would on the next sample.
func (c *Controller) emergencyDown() error {
	if c.isPressed(keymaps.ButtonZL) {
		return nil
	}
	c.pressed[keymaps.ButtonZL] = struct{}{}
	if c.notch != notch.B8 {
		return nil
	}
	return c.moveTo(notch.EB)
}

// emergencyUp releases the interlock. EB without the interlock is B8, so
// this sends Transition(EB, B8), a single brake-down press. A brake-release
// press would instead leave the simulator at N.
func (c *Controller) emergencyUp() error {
	if err := c.forget(keymaps.ButtonZL); err != nil {
		return err
	}
	if c.notch != notch.EB {
		return nil
	}
	return c.moveTo(notch.B8)
}

func (c *Controller) isPressed(s keymaps.Symbol) bool {
	_, ok := c.pressed[s]
	return ok
}

func (c *Controller) forget(s keymaps.Symbol) error {
	if !c.isPressed(s) {
		return errors.Wrapf(ErrNotPressed, "%s", s)
	}
	delete(c.pressed, s)
	return nil
}

// ReleaseAll releases every held chord. The interlock is dropped without
// touching the lever.
func (c *Controller) ReleaseAll() error {
	var firstErr error
	for _, s := range c.Held() {
		if s == keymaps.ButtonZL {
			delete(c.pressed, s)
			continue
		}
		if err := c.release(s); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
