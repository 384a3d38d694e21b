// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "fmt"

// NewReleaseQueue creates release queues for slots frames in flight.
func NewReleaseQueue(slots int) *ReleaseQueue {
	return &ReleaseQueue{
		queues: make([][]func(), slots),
	}
}

// ReleaseQueue defers destruction of GPU resources until the frame slot
// that last referenced them is known to be complete. There is one FIFO
// per slot. It is used from the render thread only.
type ReleaseQueue struct {
	queues [][]func()
}

// Slots returns the number of slots the queue was created with.
func (q *ReleaseQueue) Slots() int {
	return len(q.queues)
}

// Push enqueues fn on the queue of slot.
func (q *ReleaseQueue) Push(slot int, fn func()) {
	if slot < 0 || slot >= len(q.queues) {
		panic(fmt.Sprintf("release queue: slot %d out of range [0,%d)", slot, len(q.queues)))
	}
	q.queues[slot] = append(q.queues[slot], fn)
}

// Len returns the number of pending releases of slot.
func (q *ReleaseQueue) Len(slot int) int {
	return len(q.queues[slot])
}

// Drain runs and clears every release queued on slot in push order. It must
// only be called after the slot fence was waited on. Releases pushed while
// draining run in the same drain.
func (q *ReleaseQueue) Drain(slot int) int {
	var n int
	for len(q.queues[slot]) > 0 {
		pending := q.queues[slot]
		q.queues[slot] = nil
		for _, fn := range pending {
			fn()
		}
		n += len(pending)
	}
	return n
}

// DrainAll drains every slot, in slot order. The device must be idle.
func (q *ReleaseQueue) DrainAll() int {
	var n int
	for slot := range q.queues {
		n += q.Drain(slot)
	}
	return n
}
