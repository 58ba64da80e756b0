// Package keysink sends synthetic key events to the system through a uinput
// virtual keyboard.
package keysink

import (
	"github.com/bendahl/uinput"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DefaultPath is the uinput control node.
const DefaultPath = "/dev/uinput"

// Sink accepts key events in order. uinput.Keyboard satisfies it.
type Sink interface {
	KeyPress(key int) error
	KeyDown(key int) error
	KeyUp(key int) error
}

// PressN presses and releases key n times in sequence.
func PressN(s Sink, key, n int) error {
	for i := 0; i < n; i++ {
		if err := s.KeyPress(key); err != nil {
			return errors.Wrapf(err, "press %d of %d", i+1, n)
		}
	}
	return nil
}

// CreateKeyboard opens a virtual keyboard on the uinput node at path.
func CreateKeyboard(path, name string) (uinput.Keyboard, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := unix.Access(path, unix.W_OK); err != nil {
		return nil, errors.Wrapf(err, "%s is not writable (load the uinput module and check permissions)", path)
	}
	kb, err := uinput.CreateKeyboard(path, []byte(name))
	if err != nil {
		return nil, errors.Wrap(err, "create virtual keyboard")
	}
	return kb, nil
}
