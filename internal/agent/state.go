package agent

import "hunt-and-hide/sim/internal/sense"

// State is the agent's FSM state. Exactly one is active at a time.
type State int

const (
	StateIdle State = iota
	StatePatrol
	StateChase
	StateSearch
	StateFlee
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePatrol:
		return "patrol"
	case StateChase:
		return "chase"
	case StateSearch:
		return "search"
	case StateFlee:
		return "flee"
	default:
		return "unknown"
	}
}

// NextState resolves a sensor event against the transition table. It is a
// pure function: unlisted (state, event) pairs report no transition.
//
//	TargetDetected  weak agent, not fleeing   -> Flee
//	TargetDetected  other agent, not chasing  -> Chase
//	SoundHeard      idle or patrolling        -> Search
//
// TargetLost carries no immediate transition. A chasing agent keeps chasing
// toward the last sighting and only drops to Search once the lost timeout
// elapses, so the loss clock lives in the chase tick, not here.
func NextState(current State, kind sense.EventKind, weak bool) (State, bool) {
	switch kind {
	case sense.TargetDetected:
		if weak {
			if current != StateFlee {
				return StateFlee, true
			}
		} else if current != StateChase {
			return StateChase, true
		}
	case sense.SoundHeard:
		if current == StateIdle || current == StatePatrol {
			return StateSearch, true
		}
	}
	return current, false
}
