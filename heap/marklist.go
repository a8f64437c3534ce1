package heap

// MarkList holds values that must stay alive while they are outside any
// traced structure, for example the arguments of a call being assembled.
// Register it with AddMarkList for as long as it holds values.
type MarkList struct {
	values []uintptr
}

// NewMarkList returns a list holding values.
func NewMarkList(values ...uintptr) *MarkList {
	return &MarkList{values: append([]uintptr(nil), values...)}
}

// Append adds v to the list.
func (l *MarkList) Append(v uintptr) { l.values = append(l.values, v) }

// At returns the i'th value.
func (l *MarkList) At(i int) uintptr { return l.values[i] }

// Len returns the number of values.
func (l *MarkList) Len() int { return len(l.values) }

// Values returns the list's values. The slice aliases the list.
func (l *MarkList) Values() []uintptr { return l.values }

// Clear empties the list, keeping its capacity.
func (l *MarkList) Clear() {
	clear(l.values)
	l.values = l.values[:0]
}

// AddMarkList registers l as a root source. Adding a list twice is a no-op.
func (h *Heap) AddMarkList(l *MarkList) {
	if l != nil {
		h.markLists[l] = struct{}{}
	}
}

// RemoveMarkList unregisters l.
func (h *Heap) RemoveMarkList(l *MarkList) {
	delete(h.markLists, l)
}

func (h *Heap) markListRoots() {
	for l := range h.markLists {
		for _, v := range l.values {
			h.mark(v)
		}
	}
	h.drain()
}
