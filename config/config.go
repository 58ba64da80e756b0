// Package config loads the daemon configuration.
//
// Defaults come from DefaultConfig, a YAML file is layered on top, then flag
// overrides, then Validate. The rest of the program can assume a well-formed
// Config after that.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/goMascon/input"
	"github.com/goMascon/keymaps"
	"github.com/goMascon/keysink"
	"github.com/goMascon/notch"
)

// Config is the top-level YAML configuration.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Keyboard KeyboardConfig `yaml:"keyboard"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DeviceConfig selects the controller and describes its event codes.
type DeviceConfig struct {
	Path           string   `yaml:"path,omitempty"` // fixed device node; overrides Names
	Names          []string `yaml:"names"`          // name patterns used for discovery
	Grab           bool     `yaml:"grab"`
	PollIntervalMS int      `yaml:"poll_interval_ms"`

	AxisCode uint16 `yaml:"axis_code"`
	AxisMin  int32  `yaml:"axis_min"`
	AxisMax  int32  `yaml:"axis_max"`
	Invert   bool   `yaml:"invert"`

	HatXCode uint16 `yaml:"hat_x_code"`
	HatYCode uint16 `yaml:"hat_y_code"`

	// Buttons maps symbol names (A, B, ZL, HOME, ...) to EV_KEY codes.
	Buttons map[string]uint16 `yaml:"buttons"`
}

// KeyboardConfig configures the virtual keyboard and the keys it sends.
type KeyboardConfig struct {
	UinputPath string `yaml:"uinput_path"`
	Name       string `yaml:"name"`
	Profile    string `yaml:"profile"`

	// Lever overrides profile keys per action (power_up, brake_up, neutral, ...).
	Lever map[string]string `yaml:"lever,omitempty"`
	// Buttons overrides profile chords per symbol, e.g. HOME: "command+g".
	Buttons map[string]string `yaml:"buttons,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	m := input.DefaultMapping()
	buttons := make(map[string]uint16, len(m.Buttons))
	for code, s := range m.Buttons {
		buttons[string(s)] = code
	}
	return Config{
		Device: DeviceConfig{
			Names:          []string{"mascon", "zuiki"},
			Grab:           true,
			PollIntervalMS: 1000,
			AxisCode:       m.AxisCode,
			AxisMin:        m.AxisMin,
			AxisMax:        m.AxisMax,
			HatXCode:       m.HatXCode,
			HatYCode:       m.HatYCode,
			Buttons:        buttons,
		},
		Keyboard: KeyboardConfig{
			UinputPath: keysink.DefaultPath,
			Name:       "goMascon",
			Profile:    keymaps.ProfileZuiki,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of the defaults.
// Unknown fields are rejected to catch typos.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		if err == io.EOF {
			// empty file: defaults only
			return cfg, nil
		}
		return Config{}, errors.Wrap(err, "decode config yaml")
	}

	// Only whitespace/comments are allowed after the document.
	if err := dec.Decode(&yaml.Node{}); err != io.EOF {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides holds flag values to apply on top of a loaded config. A nil
// pointer means the flag was not set.
type FlagOverrides struct {
	DevicePath *string
	Grab       *bool
	Profile    *string
	UinputPath *string
	LogLevel   *string
	LogFile    *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.DevicePath != nil {
		cfg.Device.Path = *o.DevicePath
	}
	if o.Grab != nil {
		cfg.Device.Grab = *o.Grab
	}
	if o.Profile != nil {
		cfg.Keyboard.Profile = *o.Profile
	}
	if o.UinputPath != nil {
		cfg.Keyboard.UinputPath = *o.UinputPath
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.LogFile != nil {
		cfg.Logging.File = *o.LogFile
	}
}

// Validate checks config invariants and returns a user-friendly error.
func (c *Config) Validate() error {
	// Device
	if c.Device.Path == "" && len(c.Device.Names) == 0 {
		return errors.New("device.path or device.names must be set")
	}
	if c.Device.PollIntervalMS <= 0 {
		return errors.New("device.poll_interval_ms must be > 0")
	}
	if c.Device.AxisMin >= c.Device.AxisMax {
		return errors.New("device.axis_min must be < device.axis_max")
	}
	if c.Device.HatXCode == c.Device.HatYCode {
		return errors.New("device.hat_x_code and device.hat_y_code must differ")
	}
	if _, err := c.Mapping(); err != nil {
		return err
	}

	// Keyboard
	if c.Keyboard.UinputPath == "" {
		return errors.New("keyboard.uinput_path must not be empty")
	}
	if c.Keyboard.Name == "" {
		return errors.New("keyboard.name must not be empty")
	}
	if _, err := c.KeyMapping(keymaps.CreateDefaultKeyMappingProvider()); err != nil {
		return err
	}

	// Logging
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}
	return nil
}

// Mapping converts the device section into the input mapping.
func (c *Config) Mapping() (input.Mapping, error) {
	known := make(map[keymaps.Symbol]bool, len(keymaps.Buttons))
	for _, s := range keymaps.Buttons {
		known[s] = true
	}

	buttons := make(map[uint16]keymaps.Symbol, len(c.Device.Buttons))
	for _, name := range sortedKeys(c.Device.Buttons) {
		s := keymaps.Symbol(name)
		if !known[s] {
			return input.Mapping{}, errors.Errorf("device.buttons: unknown button %q", name)
		}
		code := c.Device.Buttons[name]
		if other, dup := buttons[code]; dup {
			return input.Mapping{}, errors.Errorf("device.buttons: %s and %s share code %d", other, s, code)
		}
		buttons[code] = s
	}

	return input.Mapping{
		AxisCode: c.Device.AxisCode,
		AxisMin:  c.Device.AxisMin,
		AxisMax:  c.Device.AxisMax,
		Invert:   c.Device.Invert,
		HatXCode: c.Device.HatXCode,
		HatYCode: c.Device.HatYCode,
		Buttons:  buttons,
	}, nil
}

// SourceConfig converts the device section into the reader configuration.
func (c *Config) SourceConfig() (input.SourceConfig, error) {
	m, err := c.Mapping()
	if err != nil {
		return input.SourceConfig{}, err
	}
	return input.SourceConfig{
		Mapping:      m,
		Grab:         c.Device.Grab,
		PollInterval: time.Duration(c.Device.PollIntervalMS) * time.Millisecond,
	}, nil
}

// KeyMapping resolves the configured profile and applies the key overrides.
func (c *Config) KeyMapping(provider *keymaps.KeyMappingProvider) (keymaps.KeyMapping, error) {
	m, err := provider.GetMapping(c.Keyboard.Profile)
	if err != nil {
		return keymaps.KeyMapping{}, errors.Wrap(err, "keyboard.profile")
	}

	for _, name := range sortedKeys(c.Keyboard.Lever) {
		key, err := keymaps.ParseKey(c.Keyboard.Lever[name])
		if err != nil {
			return keymaps.KeyMapping{}, errors.Wrapf(err, "keyboard.lever.%s", name)
		}
		if err := setLeverKey(&m, name, key); err != nil {
			return keymaps.KeyMapping{}, err
		}
	}

	for _, name := range sortedKeys(c.Keyboard.Buttons) {
		s := keymaps.Symbol(name)
		if s == keymaps.ButtonZL {
			return keymaps.KeyMapping{}, errors.New("keyboard.buttons.ZL: ZL is the emergency brake interlock and cannot be mapped")
		}
		if !bindable(s) {
			return keymaps.KeyMapping{}, errors.Errorf("keyboard.buttons: unknown button %q", name)
		}
		keys, err := keymaps.ParseChord(c.Keyboard.Buttons[name])
		if err != nil {
			return keymaps.KeyMapping{}, errors.Wrapf(err, "keyboard.buttons.%s", name)
		}
		m.Buttons[s] = keys
	}

	if err := m.Validate(); err != nil {
		return keymaps.KeyMapping{}, errors.Wrap(err, "keyboard")
	}
	return m, nil
}

func bindable(s keymaps.Symbol) bool {
	for _, b := range keymaps.Buttons {
		if b == s {
			return true
		}
	}
	for _, d := range keymaps.Directions {
		if d == s {
			return true
		}
	}
	return false
}

func setLeverKey(m *keymaps.KeyMapping, name string, key int) error {
	switch name {
	case notch.PowerUp.String():
		m.PowerUpKey = key
	case notch.PowerDown.String():
		m.PowerDownKey = key
	case notch.BrakeUp.String():
		m.BrakeUpKey = key
	case notch.BrakeDown.String():
		m.BrakeDownKey = key
	case notch.Neutral.String():
		m.NeutralKey = key
	case notch.BrakeRelease.String():
		m.BrakeReleaseKey = key
	case notch.Emergency.String():
		m.EmergencyKey = key
	default:
		return errors.Errorf("keyboard.lever: unknown action %q", name)
	}
	return nil
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
