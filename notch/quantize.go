package notch

// threshold pairs a lower bound with the notch selected when a sample is
// strictly above it. The bands are wider on the power side to follow the
// controller's mechanical detents.
type threshold struct {
	above float64
	notch Notch
}

var thresholds = [...]threshold{
	{0.9, P5},
	{0.7, P4},
	{0.55, P3},
	{0.35, P2},
	{0.15, P1},
	{-0.1, N},
	{-0.25, B1},
	{-0.35, B2},
	{-0.5, B3},
	{-0.6, B4},
	{-0.7, B5},
	{-0.8, B6},
	{-0.9, B7},
}

// Quantize maps a normalized axis sample to a notch. Anything at or below
// -0.9 is B8, or EB when the emergency interlock is held.
func Quantize(value float64, emergencyHeld bool) Notch {
	for _, t := range thresholds {
		if value > t.above {
			return t.notch
		}
	}
	if emergencyHeld {
		return EB
	}
	return B8
}
