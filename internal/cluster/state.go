// Package cluster places K relay points on candidate cities with a weighted
// Lloyd iteration: assign, recenter, snap to the nearest city, repeat.
package cluster

import "github.com/rotisserie/eris"

// State is a step of the clustering state machine.
type State int

const (
	StateInitializing State = iota
	StateIterating
	StateConverged
	StateExhausted
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is Converged or Exhausted.
func (s State) Terminal() bool {
	return s == StateConverged || s == StateExhausted
}

var (
	// ErrInvalidConfiguration is returned when K is out of range or the
	// demand carries negative or non-finite values.
	ErrInvalidConfiguration = eris.New("invalid configuration")

	// ErrNoDemandInRegion is returned when there are no demand points to cluster.
	ErrNoDemandInRegion = eris.New("no demand in region")
)
