package notch

import (
	"fmt"
	"strings"
)

// Action is a single lever key the target application understands.
type Action int

const (
	PowerUp      Action = iota // one notch towards P5
	PowerDown                  // one notch towards N while powering
	BrakeUp                    // one notch deeper into the brake range
	BrakeDown                  // one notch out of the brake range
	Neutral                    // power detent back to N
	BrakeRelease               // brake detent back to N
	Emergency                  // EB detent
)

// Actions lists every lever action.
var Actions = []Action{PowerUp, PowerDown, BrakeUp, BrakeDown, Neutral, BrakeRelease, Emergency}

var actionNames = [...]string{
	PowerUp:      "power_up",
	PowerDown:    "power_down",
	BrakeUp:      "brake_up",
	BrakeDown:    "brake_down",
	Neutral:      "neutral",
	BrakeRelease: "brake_release",
	Emergency:    "emergency",
}

func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Step presses Action Repeat times, each as its own press/release pair.
type Step struct {
	Action Action
	Repeat int
}

func (s Step) String() string {
	if s.Repeat == 1 {
		return s.Action.String()
	}
	return fmt.Sprintf("%s x%d", s.Action, s.Repeat)
}

// Plan is the ordered list of steps that moves the lever between two notches.
type Plan []Step

// Presses counts the individual key presses in the plan.
func (p Plan) Presses() int {
	total := 0
	for _, s := range p {
		total += s.Repeat
	}
	return total
}

func (p Plan) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Transition computes the key steps that move the lever from current to
// target and returns the notch to commit afterwards.
//
// Leaving a plateau takes one detent (Neutral or BrakeRelease) followed by the
// remainder of the move computed from N, so a plan has at most two hops.
func Transition(current, target Notch) (Plan, Notch) {
	if current == target {
		return nil, target
	}
	if plan, ok := fromNeutralSide(current, target); ok {
		return plan, target
	}

	var detent Action
	switch {
	case current.IsPower():
		if target.IsPower() {
			return Plan{{PowerDown, current.Steps(target)}}, target
		}
		detent = Neutral
	default:
		if target.IsBrake() {
			return Plan{{BrakeDown, target.Steps(current)}}, target
		}
		detent = BrakeRelease
	}

	plan := Plan{{detent, 1}}
	if rest, ok := fromNeutralSide(N, target); ok {
		plan = append(plan, rest...)
	}
	return plan, target
}

// fromNeutralSide covers the moves that start at or on the near side of N:
// powering up from N or above, and braking or EB from N or below.
func fromNeutralSide(current, target Notch) (Plan, bool) {
	switch {
	case current == target:
		return nil, true
	case N <= current && current < target:
		return Plan{{PowerUp, target.Steps(current)}}, true
	case current <= N && target == EB:
		return Plan{{Emergency, 1}}, true
	case target < current && current <= N:
		return Plan{{BrakeUp, current.Steps(target)}}, true
	}
	return nil, false
}
