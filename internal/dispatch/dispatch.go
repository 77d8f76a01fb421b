// Package dispatch runs credential operations in the background, at most one
// at a time per (kind, credential) pair, and delivers their results as events.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var (
	ErrUnknownKind = errors.New("unknown operation kind")
	ErrPanic       = errors.New("operation panicked")
)

// Routine does the work of one operation kind for a credential.
// An error becomes a failed status event.
type Routine func(ctx context.Context, id string) (Event, error)

// pending is the bookkeeping for the last accepted request of a kind
type pending struct {
	id   string
	opID string
	done chan struct{}
}

func (p *pending) finished() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Dispatcher accepts operation requests and runs each on its own goroutine.
// A request is dropped while a task of the same kind for the same credential
// is still running. A request for another credential replaces the slot of its
// kind without cancelling the running task, whose result is still delivered.
type Dispatcher struct {
	queue    *Queue
	routines map[Kind]Routine
	logger   *log.Logger
	ctx      context.Context

	mu    sync.Mutex
	slots map[Kind]*pending
	wg    sync.WaitGroup
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithContext sets the context passed to routines. Its values are kept but
// its cancellation is not propagated: a started task always runs to the end.
func WithContext(ctx context.Context) Option {
	return func(d *Dispatcher) {
		d.ctx = context.WithoutCancel(ctx)
	}
}

// New creates a dispatcher delivering to queue
func New(queue *Queue, routines map[Kind]Routine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:    queue,
		routines: routines,
		logger:   log.Default(),
		ctx:      context.Background(),
		slots:    make(map[Kind]*pending),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Request starts kind for id unless the same operation is already running.
// It returns the operation ID and whether the request was accepted.
func (d *Dispatcher) Request(kind Kind, id string) (string, bool) {
	routine, ok := d.routines[kind]
	if !ok {
		d.queue.Push(Event{
			Type: StatusEvent,
			Kind: kind,
			ID:   id,
			Err:  fmt.Errorf("%w: %s", ErrUnknownKind, kind),
		})
		return "", false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.slots[kind]; ok && p.id == id && !p.finished() {
		d.logger.Debugf("Suppressed duplicate %s for %s", kind, id)
		return "", false
	}

	p := &pending{
		id:   id,
		opID: uuid.NewString(),
		done: make(chan struct{}),
	}
	d.slots[kind] = p

	d.wg.Add(1)
	go d.run(kind, routine, p)

	d.logger.Debugf("Started %s for %s (op %s)", kind, id, p.opID)
	return p.opID, true
}

// Running returns the credential of the live task of kind, if any
func (d *Dispatcher) Running(kind Kind) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.slots[kind]
	if !ok || p.finished() {
		return "", false
	}
	return p.id, true
}

// Wait blocks until every started task has delivered its event
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(kind Kind, routine Routine, p *pending) {
	defer d.wg.Done()

	ev := d.invoke(kind, routine, p.id)
	ev.OpID = p.opID
	ev.Kind = kind
	ev.ID = p.id

	if ev.Err != nil {
		d.logger.Warnf("%s for %s failed: %v", kind, p.id, ev.Err)
	}

	// the slot is free before the event is visible to the consumer
	close(p.done)
	d.queue.Push(ev)
}

func (d *Dispatcher) invoke(kind Kind, routine Routine, id string) (ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("%s for %s panicked: %v", kind, id, r)
			ev = Failed(fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	ev, err := routine(d.ctx, id)
	if err != nil {
		return Failed(err)
	}
	return ev
}
