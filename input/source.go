package input

import (
	"context"
	"log/slog"
	"time"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/pkg/errors"

	"github.com/goMascon/mascon"
)

// Device is the part of InputDevice the reader needs.
type Device interface {
	Name() string
	Path() string
	ReadOne() (*evdev.InputEvent, error)
	Grab() error
	Close() error
}

// Opener finds and opens the controller. It returns ErrNoDevice while the
// controller is unplugged.
type Opener func() (Device, error)

// SourceConfig configures a Source.
type SourceConfig struct {
	Mapping      Mapping
	Grab         bool
	PollInterval time.Duration // how often to look for the device while it is absent
}

// Source reads the controller and sends translated events. When the device
// goes away it reports DeviceRemoved and waits for it to come back.
type Source struct {
	open       Opener
	cfg        SourceConfig
	translator *Translator
	logger     *slog.Logger
}

// NewSource creates a reader. open is called each time the device has to be
// (re)acquired.
func NewSource(open Opener, cfg SourceConfig, logger *slog.Logger) *Source {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		open:       open,
		cfg:        cfg,
		translator: NewTranslator(cfg.Mapping),
		logger:     logger,
	}
}

// DeviceOpener returns an Opener for a fixed path, or for the first device
// whose name matches one of the patterns when path is empty.
func DeviceOpener(path string, patterns []string) Opener {
	return func() (Device, error) {
		if path != "" {
			dev, err := Open(path)
			if err != nil {
				return nil, errors.Wrap(ErrNoDevice, err.Error())
			}
			return dev, nil
		}
		dev, err := FindInputDevice(patterns)
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
}

// Run acquires the device and forwards its events until ctx is canceled.
// It only returns an error for failures that retrying cannot fix.
func (s *Source) Run(ctx context.Context, events chan<- mascon.Event) error {
	waiting := false
	for {
		dev, err := s.open()
		if err != nil {
			if !errors.Is(err, ErrNoDevice) {
				return err
			}
			if !waiting {
				s.logger.Info("waiting for controller", "error", err)
				waiting = true
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.cfg.PollInterval):
				continue
			}
		}
		waiting = false

		readErr := s.serve(ctx, dev, events)
		if ctx.Err() != nil {
			return nil
		}
		if !send(ctx, events, mascon.DeviceRemoved{Name: dev.Name(), Err: readErr}) {
			return nil
		}
	}
}

// serve forwards events from one opened device until it fails or ctx ends.
func (s *Source) serve(ctx context.Context, dev Device, events chan<- mascon.Event) error {
	defer dev.Close()

	if s.cfg.Grab {
		if err := dev.Grab(); err != nil {
			s.logger.Warn("failed to grab device", "name", dev.Name(), "error", err)
		}
	}

	s.translator.Reset()
	if !send(ctx, events, mascon.DeviceAdded{Name: dev.Name(), Path: dev.Path()}) {
		return nil
	}

	// Closing the file is the only way to unblock a pending read.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			dev.Close()
		case <-stop:
		}
	}()

	for {
		raw, err := dev.ReadOne()
		if err != nil {
			return errors.Wrapf(err, "read from %s", dev.Path())
		}
		ev, ok := s.translator.Translate(*raw)
		if !ok {
			continue
		}
		if !send(ctx, events, ev) {
			return nil
		}
	}
}

func send(ctx context.Context, events chan<- mascon.Event, ev mascon.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
