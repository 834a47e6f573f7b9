package window

// ring is a fixed-capacity deque. Push appends at the tail and, when full,
// evicts the head in O(1).
type ring[T any] struct {
	buf  []T
	head int
	size int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) Len() int { return r.size }
func (r *ring[T]) Cap() int { return len(r.buf) }

func (r *ring[T]) pos(i int) int { return (r.head + i) % len(r.buf) }

// At returns the i-th element counted from the head (0 = oldest).
func (r *ring[T]) At(i int) T { return r.buf[r.pos(i)] }

func (r *ring[T]) Set(i int, v T) { r.buf[r.pos(i)] = v }

// Push appends v and returns the evicted head, if any.
func (r *ring[T]) Push(v T) (evicted T, ok bool) {
	if r.size == len(r.buf) {
		evicted = r.buf[r.head]
		r.buf[r.head] = v
		r.head = r.pos(1)
		return evicted, true
	}
	r.buf[r.pos(r.size)] = v
	r.size++
	return evicted, false
}

// RemoveAt deletes the i-th element, shifting later elements toward the head.
func (r *ring[T]) RemoveAt(i int) {
	for j := i; j < r.size-1; j++ {
		r.Set(j, r.At(j+1))
	}
	var zero T
	r.Set(r.size-1, zero)
	r.size--
}

// InsertAt places v at position i, shifting later elements toward the
// tail. The ring must not be full.
func (r *ring[T]) InsertAt(i int, v T) {
	r.size++
	for j := r.size - 1; j > i; j-- {
		r.Set(j, r.At(j-1))
	}
	r.Set(i, v)
}

// Reset empties the ring without reallocating.
func (r *ring[T]) Reset() {
	clear(r.buf)
	r.head, r.size = 0, 0
}

// Slice copies elements [from, to) in head-to-tail order.
func (r *ring[T]) Slice(from, to int) []T {
	out := make([]T, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, r.At(i))
	}
	return out
}
