package heap

import "github.com/joshuapare/cellheap/heap/alloc"

// Stats is a snapshot of heap occupancy and collector activity.
type Stats struct {
	Primary alloc.Stats
	Numbers alloc.Stats

	Size          uintptr // Live bytes, as reported by Size
	ExtraCost     int     // Pending extra cost, in cells
	Collections   int     // Completed cycles
	LastReclaimed int     // Cells reclaimed by the most recent cycle
	Protected     int     // Distinct protected cells
	Threads       int     // Registered auxiliary stacks
	State         State
}

// Stats returns current statistics.
func (h *Heap) Stats() Stats {
	return Stats{
		Primary:       h.primary.Stats(),
		Numbers:       h.numbers.Stats(),
		Size:          h.Size(),
		ExtraCost:     h.extraCost,
		Collections:   h.collections,
		LastReclaimed: h.lastReclaimed,
		Protected:     h.ProtectedObjectCount(),
		Threads:       h.RegisteredThreads(),
		State:         h.state,
	}
}
