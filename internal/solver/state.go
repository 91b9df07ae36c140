package solver

import "fmt"

// State is the position of a solver in its run. Running is the only
// non-terminal state.
type State int

const (
	Running State = iota
	Converged
	MaxIterationsExceeded
	Diverged
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case MaxIterationsExceeded:
		return "max_iterations_exceeded"
	case Diverged:
		return "diverged"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) Terminal() bool { return s != Running }

// MarshalText lets states appear by name in JSON and YAML documents.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for _, c := range []State{Running, Converged, MaxIterationsExceeded, Diverged} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("solver: unknown state %q", b)
}
