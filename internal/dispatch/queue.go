package dispatch

import "sync"

// Queue is an unbounded multi-producer, single-consumer event queue.
// Push never blocks; events come out of C in push order.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Event
	closed bool
	out    chan Event
}

// NewQueue creates a queue and starts its delivery goroutine
func NewQueue() *Queue {
	q := &Queue{out: make(chan Event)}
	q.cond = sync.NewCond(&q.mu)
	go q.pump()
	return q
}

// Push appends an event. Events pushed after Close are dropped.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, e)
	q.cond.Signal()
}

// C returns the channel events are delivered on. It is closed after Close
// once every queued event has been received.
func (q *Queue) C() <-chan Event {
	return q.out
}

// Len returns the number of events not yet handed to the consumer
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting events
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Signal()
}

func (q *Queue) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		e := q.items[0]
		q.items[0] = Event{}
		q.items = q.items[1:]
		q.mu.Unlock()

		q.out <- e
	}
}
