package aero

import "sync/atomic"

// BoundedList is a fixed-capacity list that many workers may append to at
// once. Appends past capacity are dropped and counted. The counter never
// exceeds capacity.
type BoundedList[T any] struct {
	items   []T
	n       atomic.Int64
	dropped atomic.Int64
}

// NewBoundedList allocates a list holding at most capacity items.
func NewBoundedList[T any](capacity int) *BoundedList[T] {
	return &BoundedList[T]{items: make([]T, capacity)}
}

// Reserve claims the next free slot. It returns false when the list is full.
func (l *BoundedList[T]) Reserve() (int, bool) {
	limit := int64(len(l.items))
	for {
		cur := l.n.Load()
		if cur >= limit {
			l.dropped.Add(1)
			return -1, false
		}
		if l.n.CompareAndSwap(cur, cur+1) {
			return int(cur), true
		}
	}
}

// Append stores v in a fresh slot and returns its index, or -1 when full.
func (l *BoundedList[T]) Append(v T) int {
	i, ok := l.Reserve()
	if !ok {
		return -1
	}
	l.items[i] = v
	return i
}

// At returns a pointer to item i.
func (l *BoundedList[T]) At(i int) *T {
	return &l.items[i]
}

// Items returns the filled prefix. Only valid once appenders are done.
func (l *BoundedList[T]) Items() []T {
	return l.items[:l.Len()]
}

// Len returns the number of stored items.
func (l *BoundedList[T]) Len() int {
	return int(l.n.Load())
}

// Cap returns the fixed capacity.
func (l *BoundedList[T]) Cap() int {
	return len(l.items)
}

// Dropped returns the number of rejected appends since the last Reset.
func (l *BoundedList[T]) Dropped() int {
	return int(l.dropped.Load())
}

// Reset empties the list and the drop counter. Storage is kept.
func (l *BoundedList[T]) Reset() {
	l.n.Store(0)
	l.dropped.Store(0)
}
