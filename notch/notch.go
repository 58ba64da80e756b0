package notch

import "fmt"

// Notch is a lever position. Positive values are power notches, negative
// values are brake notches and EB sits below the deepest service brake.
type Notch int

const (
	EB Notch = iota - 9
	B8
	B7
	B6
	B5
	B4
	B3
	B2
	B1
	N
	P1
	P2
	P3
	P4
	P5
)

// All lists every notch from full power down to EB.
var All = []Notch{P5, P4, P3, P2, P1, N, B1, B2, B3, B4, B5, B6, B7, B8, EB}

var names = map[Notch]string{
	P5: "P5", P4: "P4", P3: "P3", P2: "P2", P1: "P1",
	N:  "N",
	B1: "B1", B2: "B2", B3: "B3", B4: "B4", B5: "B5", B6: "B6", B7: "B7", B8: "B8",
	EB: "EB",
}

func (n Notch) String() string {
	if s, ok := names[n]; ok {
		return s
	}
	return fmt.Sprintf("Notch(%d)", int(n))
}

// Valid reports whether n is one of the 15 lever positions.
func (n Notch) Valid() bool {
	return n >= EB && n <= P5
}

// Steps returns how many single-notch steps separate n from m (n - m).
func (n Notch) Steps(m Notch) int {
	return int(n) - int(m)
}

// IsPower reports whether n is in the power plateau (P1..P5).
func (n Notch) IsPower() bool { return n >= P1 }

// IsBrake reports whether n is in the brake plateau (B1..B8 and EB).
func (n Notch) IsBrake() bool { return n <= B1 }

// Parse converts a notch name such as "P3" or "EB" back to a Notch.
func Parse(s string) (Notch, error) {
	for n, name := range names {
		if name == s {
			return n, nil
		}
	}
	return N, fmt.Errorf("unknown notch %q", s)
}
