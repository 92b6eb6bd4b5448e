package tracking

import "sync"

// State is a deliverer state.
type State string

const (
	// StateIdle waits for the next attempt.
	StateIdle State = "idle"
	// StateSending has one batch outstanding at the transport.
	StateSending State = "sending"
	// StateCooldown pauses after a failed send before the next attempt.
	StateCooldown State = "cooldown"
)

// Name returns the state as a plain string.
func (s State) Name() string { return string(s) }

// trigger moves the deliverer between states.
type trigger string

const (
	triggerTick   trigger = "tick"
	triggerEmpty  trigger = "empty"
	triggerSent   trigger = "sent"
	triggerFailed trigger = "failed"
	triggerResume trigger = "resume"
)

type transition struct {
	from State
	on   trigger
	to   State
}

// deliveryTransitions is the complete table; any other combination is a bug.
var deliveryTransitions = []transition{
	{from: StateIdle, on: triggerTick, to: StateSending},
	{from: StateIdle, on: triggerEmpty, to: StateIdle},
	{from: StateSending, on: triggerSent, to: StateIdle},
	{from: StateSending, on: triggerFailed, to: StateCooldown},
	{from: StateCooldown, on: triggerResume, to: StateIdle},
}

// stateMachine is a table-driven finite state machine.
// Lookups are keyed [from][trigger] for constant-time transitions.
type stateMachine struct {
	mu       sync.RWMutex
	initial  State
	current  State
	table    map[State]map[trigger]State
	onChange func(from, to State, on trigger)
}

func newStateMachine(initial State, transitions []transition, onChange func(from, to State, on trigger)) *stateMachine {
	sm := &stateMachine{
		initial:  initial,
		current:  initial,
		table:    make(map[State]map[trigger]State),
		onChange: onChange,
	}
	for _, t := range transitions {
		if _, ok := sm.table[t.from]; !ok {
			sm.table[t.from] = make(map[trigger]State)
		}
		sm.table[t.from][t.on] = t.to
	}
	return sm
}

func (sm *stateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Fire applies the transition for on, or returns an error wrapping
// ErrNoTransition and leaves the state unchanged.
func (sm *stateMachine) Fire(on trigger) error {
	sm.mu.Lock()
	from := sm.current
	to, ok := sm.table[from][on]
	if !ok {
		sm.mu.Unlock()
		return &transitionError{state: string(from), event: string(on)}
	}
	sm.current = to
	sm.mu.Unlock()

	if sm.onChange != nil && from != to {
		sm.onChange(from, to, on)
	}
	return nil
}

func (sm *stateMachine) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.current = sm.initial
}
