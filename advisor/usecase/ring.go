package usecase

// ring is a fixed-capacity ring buffer. Push overwrites the oldest entry
// once the buffer is full, so both push and eviction are O(1).
type ring[T any] struct {
	buf  []T
	head int
	size int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

// Push appends a value, evicting the oldest entry when full
func (r *ring[T]) Push(v T) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = v
		r.size++
		return
	}

	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

// Len returns the number of stored values
func (r *ring[T]) Len() int {
	return r.size
}

// Snapshot copies the stored values in insertion order, oldest first
func (r *ring[T]) Snapshot() []T {
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Reset discards all stored values
func (r *ring[T]) Reset() {
	r.head = 0
	r.size = 0
}
