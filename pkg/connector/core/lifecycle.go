package core

// LifecycleState is the connector lifecycle state machine:
//
//	Uninitialized -> Initializing -> Ready -> Destroyed
//
// with Failed reachable from Initializing when fail-fast validation fails.
// A Failed connector is permanently unusable.
type LifecycleState int32

const (
	StateUninitialized LifecycleState = iota
	StateInitializing
	StateReady
	StateFailed
	StateDestroyed
)

// String returns the state name
func (s LifecycleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
