package agent

import (
	"testing"

	"hunt-and-hide/sim/internal/sense"
)

func TestNextStateTable(t *testing.T) {
	allStates := []State{StateIdle, StatePatrol, StateChase, StateSearch, StateFlee}

	cases := []struct {
		name     string
		kind     sense.EventKind
		weak     bool
		expected map[State]State
	}{
		{
			name: "detected combat agent chases",
			kind: sense.TargetDetected,
			weak: false,
			expected: map[State]State{
				StateIdle:   StateChase,
				StatePatrol: StateChase,
				StateSearch: StateChase,
				StateFlee:   StateChase,
			},
		},
		{
			name: "detected weak agent flees",
			kind: sense.TargetDetected,
			weak: true,
			expected: map[State]State{
				StateIdle:   StateFlee,
				StatePatrol: StateFlee,
				StateChase:  StateFlee,
				StateSearch: StateFlee,
			},
		},
		{
			name: "sound heard only interrupts idle and patrol",
			kind: sense.SoundHeard,
			weak: false,
			expected: map[State]State{
				StateIdle:   StateSearch,
				StatePatrol: StateSearch,
			},
		},
		{
			name:     "target lost never transitions directly",
			kind:     sense.TargetLost,
			weak:     false,
			expected: map[State]State{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, current := range allStates {
				next, changed := NextState(current, tc.kind, tc.weak)
				want, listed := tc.expected[current]
				if listed {
					if !changed || next != want {
						t.Fatalf("%v + %v: got (%v, %v), want (%v, true)", current, tc.kind, next, changed, want)
					}
				} else if changed {
					t.Fatalf("%v + %v: unlisted pair must not transition, got %v", current, tc.kind, next)
				}
			}
		})
	}
}

func TestStateStrings(t *testing.T) {
	want := map[State]string{
		StateIdle:   "idle",
		StatePatrol: "patrol",
		StateChase:  "chase",
		StateSearch: "search",
		StateFlee:   "flee",
	}
	for state, name := range want {
		if state.String() != name {
			t.Fatalf("state %d stringifies to %q, want %q", state, state.String(), name)
		}
	}
}
