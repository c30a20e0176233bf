package supervise

import "fmt"

// State is the termination state of one supervised process.
type State int

const (
	Running State = iota
	SoftTerminateSent
	HardKillSent
	Exited
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case SoftTerminateSent:
		return "soft_terminate_sent"
	case HardKillSent:
		return "hard_kill_sent"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists the legal successors of each state.
var transitions = map[State][]State{
	Running:           {SoftTerminateSent, Exited},
	SoftTerminateSent: {HardKillSent, Exited},
	HardKillSent:      {Exited},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
