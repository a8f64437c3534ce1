package heap

// State is the heap's operation-in-progress flag.
//
// Idle ⇄ Allocating and Idle ⇄ Collecting are the only transitions. The flag
// is bookkeeping, not a lock: the embedding runtime serializes entry.
type State uint8

const (
	// StateIdle means neither allocation nor collection is running.
	StateIdle State = iota
	// StateAllocating means an allocation is carving a cell.
	StateAllocating
	// StateCollecting means a mark/sweep cycle is running.
	StateCollecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAllocating:
		return "allocating"
	case StateCollecting:
		return "collecting"
	default:
		return "unknown"
	}
}
