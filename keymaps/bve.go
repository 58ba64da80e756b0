package keymaps

import "github.com/bendahl/uinput"

// GetBVEKeyMapping returns the BVE Trainsim default keyboard layout. Power and
// brake have separate step keys, so the shared keys of the Zuiki layout are
// split here.
func GetBVEKeyMapping() KeyMapping {
	return KeyMapping{
		PowerUpKey:      uinput.KeyZ,
		PowerDownKey:    uinput.KeyA,
		BrakeUpKey:      uinput.KeyDot,
		BrakeDownKey:    uinput.KeyComma,
		NeutralKey:      uinput.KeyS,
		BrakeReleaseKey: uinput.KeyM,
		EmergencyKey:    uinput.KeySlash,
		Buttons: map[Symbol][]int{
			ButtonA:       {uinput.KeyApostrophe}, // horn 2
			ButtonB:       {uinput.KeyEnter},      // horn 1
			ButtonX:       {uinput.KeyDelete},     // EB reset
			ButtonY:       {uinput.KeySpace},      // ATS acknowledge
			ButtonL:       {uinput.KeyInsert},
			ButtonR:       {uinput.KeyHome},
			ButtonZR:      {uinput.KeyEnd},
			ButtonMinus:   {uinput.KeyF1},
			ButtonPlus:    {uinput.KeyBackspace}, // pause
			ButtonHome:    {uinput.KeyEsc},
			ButtonCapture: {uinput.KeyLeftctrl, uinput.KeyP},
			DpadUp:        {uinput.KeyUp},
			DpadDown:      {uinput.KeyDown},
			DpadLeft:      {uinput.KeyPageup},
			DpadRight:     {uinput.KeyPagedown},
		},
	}
}

// RegisterBVEKeyMapping registers the BVE mapping with the provider
func RegisterBVEKeyMapping(provider *KeyMappingProvider) {
	provider.RegisterMapping(ProfileBVE, GetBVEKeyMapping())
}
