package engine

import (
	"sync"

	"github.com/openquant-labs/gocta/eventtypes"
)

// eventQueue is the single hand off point between gateway producer
// goroutines and the dispatch goroutine: unbounded FIFO, blocking on empty.
type eventQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []eventtypes.Event
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push never blocks; safe from any producer goroutine
func (q *eventQueue) push(e eventtypes.Event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until an event exists
func (q *eventQueue) pop() eventtypes.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e
}

// tryPop returns immediately, reporting whether an event was dequeued
func (q *eventQueue) tryPop() (eventtypes.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return eventtypes.Event{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
