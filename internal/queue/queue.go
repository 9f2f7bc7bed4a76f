// Package queue provides FIFO queues for device character streams.
//
// Two implementations share the Queue interface: a lock-free queue that is safe
// for one goroutine appending while another pops, and a slice queue for adapters
// that are only ever touched by a single poll loop.
package queue

// Queue defines the interface of a FIFO queue. Items are never reordered.
type Queue[T any] interface {
	// Enqueue adds an item to the tail of the queue.
	Enqueue(item T)
	// Dequeue removes and returns the item at the head of the queue.
	// ok is false if the queue is empty.
	Dequeue() (item T, ok bool)
	// Peek returns the item at the head of the queue without removing it.
	Peek() (item T, ok bool)
	// Reset drops every queued item.
	Reset()
	// IsEmpty returns true if the queue is empty, false otherwise.
	IsEmpty() bool
	// Length returns the number of items in the queue.
	Length() int
}
