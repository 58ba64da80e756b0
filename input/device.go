package input

import (
	"path/filepath"
	"strings"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrNoDevice is returned when no input device matches the configuration.
var ErrNoDevice = errors.New("no suitable input device found")

const devGlob = "/dev/input/event*"

// InputDevice represents the physical controller
type InputDevice struct {
	device *evdev.InputDevice
	name   string
	path   string
}

// Name returns the device name reported by the kernel.
func (d *InputDevice) Name() string { return d.name }

// Path returns the device node.
func (d *InputDevice) Path() string { return d.path }

// ReadOne blocks until the next raw event.
func (d *InputDevice) ReadOne() (*evdev.InputEvent, error) {
	return d.device.ReadOne()
}

// Grab takes exclusive access so the raw gamepad events do not also reach
// other applications.
func (d *InputDevice) Grab() error {
	return d.device.Grab()
}

// Close releases the device node.
func (d *InputDevice) Close() error {
	return d.device.File.Close()
}

// DeviceInfo describes an input device found during discovery.
type DeviceInfo struct {
	Path string
	Name string
}

// ListDevices returns every readable evdev node with its name.
func ListDevices() ([]DeviceInfo, error) {
	devFiles, err := filepath.Glob(devGlob)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list input devices")
	}

	var infos []DeviceInfo
	for _, path := range devFiles {
		dev, err := evdev.Open(path)
		if err != nil {
			continue
		}
		infos = append(infos, DeviceInfo{Path: path, Name: dev.Name})
		dev.File.Close()
	}
	return infos, nil
}

// Open opens the device at path, checking read permission first so the error
// can say what to fix.
func Open(path string) (*InputDevice, error) {
	if err := unix.Access(path, unix.R_OK); err != nil {
		return nil, errors.Wrapf(err, "cannot read %s (run as root or add user to the 'input' group)", path)
	}
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &InputDevice{device: dev, name: dev.Name, path: path}, nil
}

// FindInputDevice locates the controller by name. Patterns match
// case-insensitively anywhere in the device name; the first match wins.
func FindInputDevice(patterns []string) (*InputDevice, error) {
	devFiles, err := filepath.Glob(devGlob)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list input devices")
	}

	for _, path := range devFiles {
		dev, err := evdev.Open(path)
		if err != nil {
			continue
		}
		if MatchName(dev.Name, patterns) {
			return &InputDevice{device: dev, name: dev.Name, path: path}, nil
		}
		dev.File.Close()
	}
	return nil, ErrNoDevice
}

// MatchName reports whether a device name contains any of the patterns.
func MatchName(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
