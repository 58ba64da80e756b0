package keymaps

import "github.com/bendahl/uinput"

// GetZuikiKeyMapping returns the mapping for the Zuiki one-handle mascon
// driving a Train Sim World style key layout. HOME and CAPTURE send the
// GeForce NOW overlay and screenshot shortcuts.
func GetZuikiKeyMapping() KeyMapping {
	return KeyMapping{
		PowerUpKey:      uinput.KeyZ,
		PowerDownKey:    uinput.KeyQ,
		BrakeUpKey:      uinput.KeyQ,
		BrakeDownKey:    uinput.KeyZ,
		NeutralKey:      uinput.KeyS,
		BrakeReleaseKey: uinput.KeyS,
		EmergencyKey:    uinput.Key1,
		Buttons: map[Symbol][]int{
			ButtonA:       {uinput.KeyBackspace}, // horn, second stage
			ButtonB:       {uinput.KeyEnter},     // horn, first stage
			ButtonX:       {uinput.KeyE},         // EB reset
			ButtonY:       {uinput.KeySpace},     // ATS acknowledge
			ButtonL:       {uinput.KeyX},         // alarm hold
			ButtonR:       {uinput.KeyD},         // holding brake 1
			ButtonZR:      {uinput.KeyW},         // constant speed / holding brake 2
			ButtonMinus:   {uinput.KeyC},         // cab display
			ButtonPlus:    {uinput.KeyEsc},       // pause
			ButtonHome:    {uinput.KeyLeftmeta, uinput.KeyG},
			ButtonCapture: {uinput.KeyLeftmeta, uinput.Key1},
			DpadUp:        {uinput.KeyUp},   // reverser forward
			DpadDown:      {uinput.KeyDown}, // reverser backward
			DpadLeft:      {uinput.KeyB},    // buzzer
			DpadRight:     {uinput.KeyK},    // gradient start
		},
	}
}

// RegisterZuikiKeyMapping registers the Zuiki mapping with the provider
func RegisterZuikiKeyMapping(provider *KeyMappingProvider) {
	provider.RegisterMapping(ProfileZuiki, GetZuikiKeyMapping())
}
