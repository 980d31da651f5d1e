// Package jobs provides the lock-free plumbing between the ingest side and
// the worker pool: a multi-producer single-consumer queue and a dispatcher
// that fans jobs out across per-worker queue packs.
package jobs

import "sync/atomic"

type node[T any] struct {
	next atomic.Pointer[node[T]]
	val  T
}

// Queue is a non-intrusive Vyukov MPSC queue. Push may be called from any
// goroutine and never blocks. TryPop must be called from a single consumer
// goroutine. Ordering is FIFO per producer. The consumer releases nodes
// only after taking ownership of the value, so a recycled node can never be
// observed by a stale pointer.
type Queue[T any] struct {
	head atomic.Pointer[node[T]]
	tail *node[T] // consumer-owned
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	stub := &node[T]{}
	q := &Queue[T]{}
	q.head.Store(stub)
	q.tail = stub
	return q
}

// Push publishes v to the consumer.
func (q *Queue[T]) Push(v T) {
	n := &node[T]{val: v}
	prev := q.head.Swap(n)
	// The store below publishes n; the consumer's Load of next pairs
	// with it, making val fully visible before the pop returns.
	prev.next.Store(n)
}

// TryPop takes the oldest published value, if any.
func (q *Queue[T]) TryPop() (T, bool) {
	var zero T
	next := q.tail.next.Load()
	if next == nil {
		return zero, false
	}
	v := next.val
	next.val = zero
	q.tail = next
	return v, true
}
