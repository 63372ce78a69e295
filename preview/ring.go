package preview

import "sync"

// Ring is a bounded FIFO. When full, Push drops the oldest item so a slow
// reader only ever falls behind by the ring's capacity.
type Ring[T any] struct {
	mu       sync.Mutex
	data     []T
	popIndex int
	size     int
	dropped  int
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{data: make([]T, capacity)}
}

// Push appends item and reports whether an older item was dropped for it.
func (r *Ring[T]) Push(item T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := false
	if r.size == len(r.data) {
		var none T
		r.data[r.popIndex] = none
		r.popIndex = (r.popIndex + 1) % len(r.data)
		r.size--
		r.dropped++
		dropped = true
	}
	pushIndex := (r.popIndex + r.size) % len(r.data)
	r.data[pushIndex] = item
	r.size++
	return dropped
}

func (r *Ring[T]) Pop() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pop()
}

func (r *Ring[T]) pop() (T, bool) {
	var none T
	if r.size == 0 {
		return none, false
	}
	value := r.data[r.popIndex]
	r.data[r.popIndex] = none
	r.popIndex = (r.popIndex + 1) % len(r.data)
	r.size--
	return value, true
}

// Latest empties the ring and returns the newest item.
func (r *Ring[T]) Latest() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var last T
	found := false
	for {
		value, ok := r.pop()
		if !ok {
			return last, found
		}
		last, found = value, true
	}
}

func (r *Ring[T]) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

func (r *Ring[T]) IsEmpty() bool { return r.Size() == 0 }

// Dropped is the number of items discarded by Push so far.
func (r *Ring[T]) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
