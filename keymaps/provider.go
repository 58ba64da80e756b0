package keymaps

// Profile names
const (
	ProfileZuiki = "zuiki"
	ProfileBVE   = "bve"
)

// CreateDefaultKeyMappingProvider creates and returns a provider with all default mappings
func CreateDefaultKeyMappingProvider() *KeyMappingProvider {
	provider := NewKeyMappingProvider()

	// Register all available mappings
	RegisterZuikiKeyMapping(provider)
	RegisterBVEKeyMapping(provider)

	return provider
}
