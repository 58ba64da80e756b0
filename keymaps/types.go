package keymaps

import (
	"github.com/pkg/errors"

	"github.com/goMascon/notch"
)

// ErrUnknownSymbol is returned when a symbol has no entry in the key mapping.
// The tables are meant to be exhaustive, so callers treat it as a
// misconfiguration.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Symbol names a discrete controller input: a face/shoulder button or a
// D-pad direction.
type Symbol string

// Controller buttons
const (
	ButtonA       Symbol = "A"
	ButtonB       Symbol = "B"
	ButtonX       Symbol = "X"
	ButtonY       Symbol = "Y"
	ButtonL       Symbol = "L"
	ButtonR       Symbol = "R"
	ButtonZL      Symbol = "ZL" // emergency brake enable, never mapped to keys
	ButtonZR      Symbol = "ZR"
	ButtonMinus   Symbol = "MINUS"
	ButtonPlus    Symbol = "PLUS"
	ButtonHome    Symbol = "HOME"
	ButtonCapture Symbol = "CAPTURE"
)

// D-pad directions
const (
	DpadUp    Symbol = "UP"
	DpadDown  Symbol = "DOWN"
	DpadLeft  Symbol = "LEFT"
	DpadRight Symbol = "RIGHT"
)

// Buttons lists every button symbol in controller index order.
var Buttons = []Symbol{
	ButtonY, ButtonB, ButtonA, ButtonX, ButtonL, ButtonR, ButtonZL, ButtonZR,
	ButtonMinus, ButtonPlus, ButtonHome, ButtonCapture,
}

// Directions lists the D-pad symbols in the order they are polled.
var Directions = []Symbol{DpadUp, DpadDown, DpadLeft, DpadRight}

// KeyMapping defines the keyboard keys a profile sends.
type KeyMapping struct {
	// Lever keys, one per notch action.
	PowerUpKey      int
	PowerDownKey    int
	BrakeUpKey      int
	BrakeDownKey    int
	NeutralKey      int
	BrakeReleaseKey int
	EmergencyKey    int

	// Buttons maps a symbol to its chord. Keys are pressed in order and
	// released in reverse.
	Buttons map[Symbol][]int
}

// LeverKey returns the key bound to a lever action.
func (m KeyMapping) LeverKey(a notch.Action) (int, error) {
	var key int
	switch a {
	case notch.PowerUp:
		key = m.PowerUpKey
	case notch.PowerDown:
		key = m.PowerDownKey
	case notch.BrakeUp:
		key = m.BrakeUpKey
	case notch.BrakeDown:
		key = m.BrakeDownKey
	case notch.Neutral:
		key = m.NeutralKey
	case notch.BrakeRelease:
		key = m.BrakeReleaseKey
	case notch.Emergency:
		key = m.EmergencyKey
	}
	if key == 0 {
		return 0, errors.Errorf("no key bound to lever action %s", a)
	}
	return key, nil
}

// Chord returns the keys mapped to a symbol.
func (m KeyMapping) Chord(s Symbol) ([]int, error) {
	keys, ok := m.Buttons[s]
	if !ok || len(keys) == 0 {
		return nil, errors.Wrapf(ErrUnknownSymbol, "%s", s)
	}
	return keys, nil
}

// Clone returns a deep copy so callers can override bindings without touching
// a registered profile.
func (m KeyMapping) Clone() KeyMapping {
	c := m
	c.Buttons = make(map[Symbol][]int, len(m.Buttons))
	for s, keys := range m.Buttons {
		c.Buttons[s] = append([]int(nil), keys...)
	}
	return c
}

// Validate checks that every lever action and every symbol except ZL has a
// binding.
func (m KeyMapping) Validate() error {
	for _, a := range notch.Actions {
		if _, err := m.LeverKey(a); err != nil {
			return err
		}
	}
	for _, s := range append(append([]Symbol(nil), Buttons...), Directions...) {
		if s == ButtonZL {
			continue
		}
		if _, err := m.Chord(s); err != nil {
			return err
		}
	}
	if _, ok := m.Buttons[ButtonZL]; ok {
		return errors.New("ZL is reserved for the emergency brake interlock and cannot be mapped")
	}
	return nil
}

// KeyMappingProvider provides key mappings for different controller profiles
type KeyMappingProvider struct {
	mappings map[string]KeyMapping
}

// NewKeyMappingProvider creates an empty mapping provider
func NewKeyMappingProvider() *KeyMappingProvider {
	return &KeyMappingProvider{
		mappings: map[string]KeyMapping{},
	}
}

// GetMapping returns a copy of the key mapping registered for profile
func (p *KeyMappingProvider) GetMapping(profile string) (KeyMapping, error) {
	mapping, exists := p.mappings[profile]
	if !exists {
		return KeyMapping{}, errors.Errorf("unknown key mapping profile %q", profile)
	}
	return mapping.Clone(), nil
}

// RegisterMapping registers a key mapping under a profile name
func (p *KeyMappingProvider) RegisterMapping(profile string, mapping KeyMapping) {
	p.mappings[profile] = mapping
}

// Profiles returns the registered profile names.
func (p *KeyMappingProvider) Profiles() []string {
	names := make([]string, 0, len(p.mappings))
	for name := range p.mappings {
		names = append(names, name)
	}
	return names
}
