package core

import "container/heap"

const defaultQueueCap = 16

// =============================================================================
// callbackQueue: pending work ordered by deadline
// =============================================================================

// callbackHeap implements heap.Interface over *Handle, ordered by soonest
// deadline first, ties broken by insertion sequence (FIFO). A continuation
// reuses its parent's sequence, which is smaller than that of any live
// equal-deadline peer, so continuations sort ahead of them without a special
// insert mode.
type callbackHeap []*Handle

func (h callbackHeap) Len() int { return len(h) }

func (h callbackHeap) Less(i, j int) bool {
	if h[i].expiration != h[j].expiration {
		return h[i].expiration.Sooner(h[j].expiration)
	}
	return h[i].sequence < h[j].sequence
}

func (h callbackHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *callbackHeap) Push(x any) {
	n := len(*h)
	item := x.(*Handle)
	item.index = n
	*h = append(*h, item)
}

func (h *callbackHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

// callbackQueue is the scheduler's pending-work structure. It is not
// synchronized; the owning Scheduler serializes access under its own mutex.
type callbackQueue struct {
	items callbackHeap
}

func newCallbackQueue() *callbackQueue {
	return &callbackQueue{items: make(callbackHeap, 0, defaultQueueCap)}
}

// insert places item so the queue stays ordered by deadline.
func (q *callbackQueue) insert(item *Handle) {
	heap.Push(&q.items, item)
}

// peekEarliest returns the soonest-deadline item without removing it, or nil
// if the queue is empty.
func (q *callbackQueue) peekEarliest() *Handle {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// popEarliest removes and returns the soonest-deadline item, or nil if the
// queue is empty. The item's index is cleared before it is returned.
func (q *callbackQueue) popEarliest() *Handle {
	if len(q.items) == 0 {
		return nil
	}
	return heap.Pop(&q.items).(*Handle)
}

// remove unlinks item from anywhere in the queue. Idempotent: removing an
// item that is not enqueued is a no-op and reports false.
func (q *callbackQueue) remove(item *Handle) bool {
	if item == nil || item.index < 0 {
		return false
	}
	heap.Remove(&q.items, item.index)
	return true
}

func (q *callbackQueue) len() int {
	return len(q.items)
}
