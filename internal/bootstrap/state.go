package bootstrap

// State is the bootstrap state of one node.
type State string

// States.
const (
	StateDeterminingRole State = "DETERMINING_ROLE"
	StateInitializing    State = "INITIALIZING"
	StateAwaitingLeader  State = "AWAITING_LEADER"
	StateJoining         State = "JOINING"
	StateReady           State = "READY"
	StateFailed          State = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateReady || s == StateFailed
}

// validTransitions lists the successors of every non-terminal state. The
// empty initial state stands for a machine that has not started.
var validTransitions = map[State][]State{
	"":                   {StateDeterminingRole, StateReady, StateFailed},
	StateDeterminingRole: {StateInitializing, StateAwaitingLeader, StateFailed},
	StateInitializing:    {StateReady, StateFailed},
	StateAwaitingLeader:  {StateJoining, StateFailed},
	StateJoining:         {StateReady, StateFailed},
}

// CanTransition reports whether from -> to is part of the state machine.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
