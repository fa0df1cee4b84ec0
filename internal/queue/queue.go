// Package queue holds pending writes until a writer goroutine drains them.
package queue

import "sync"

// Coalescing is a FIFO of pending items where a newer item replaces a
// pending one with the same key without losing its place in line. Only the
// latest state of each key is ever written, so one batch never touches the
// same row twice.
type Coalescing[K comparable, T any] struct {
	mu    sync.Mutex
	keys  []K
	items map[K]T
}

// New returns an empty queue.
func New[K comparable, T any]() *Coalescing[K, T] {
	return &Coalescing[K, T]{items: make(map[K]T)}
}

// Push queues item under key, replacing any pending item with that key.
func (q *Coalescing[K, T]) Push(key K, item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.items[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.items[key] = item
}

// Len returns the number of distinct pending keys.
func (q *Coalescing[K, T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys)
}

// Empty reports whether nothing is pending.
func (q *Coalescing[K, T]) Empty() bool {
	return q.Len() == 0
}

// Drain removes and returns every pending item in first-push order.
func (q *Coalescing[K, T]) Drain() (keys []K, items []T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	keys = q.keys
	items = make([]T, len(keys))
	for i, k := range keys {
		items[i] = q.items[k]
	}
	q.keys = nil
	q.items = make(map[K]T, len(keys))
	return keys, items
}

// Restore puts back a drained batch after a failed write. Keys pushed again
// since the drain keep their newer item; restored keys go to the front.
func (q *Coalescing[K, T]) Restore(keys []K, items []T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	front := make([]K, 0, len(keys)+len(q.keys))
	for i, k := range keys {
		if _, newer := q.items[k]; newer {
			continue
		}
		q.items[k] = items[i]
		front = append(front, k)
	}
	q.keys = append(front, q.keys...)
}
