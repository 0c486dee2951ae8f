package view

// State is a view's lifecycle position.
type State uint8

const (
	// StateUnrendered is the state from construction until the first
	// successful render.
	StateUnrendered State = iota

	// StateRendered is reached on the first successful render and kept
	// across re-renders.
	StateRendered

	// StateDisposed is terminal; every subsequent operation fails.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUnrendered:
		return "unrendered"
	case StateRendered:
		return "rendered"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}
