package clipboard

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultWindow is how long a copied secret stays on the clipboard
const DefaultWindow = 45 * time.Second

// exposure is a copied secret waiting to be scrubbed
type exposure struct {
	text     string
	deadline time.Time
	timer    *time.Timer
}

// Scheduler copies text through a Guard and clears exposed secrets once
// their window has passed, but only while the clipboard still holds them.
type Scheduler struct {
	guard  *Guard
	logger *log.Logger

	// mu is always taken before the guard lock
	mu      sync.Mutex
	idle    *sync.Cond
	pending map[uint64]*exposure
	next    uint64
}

// NewScheduler creates a scheduler on top of guard
func NewScheduler(guard *Guard, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	s := &Scheduler{
		guard:   guard,
		logger:  logger,
		pending: make(map[uint64]*exposure),
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Copy places text on the clipboard without scheduling a clear
func (s *Scheduler) Copy(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard.Set(text); err != nil {
		return err
	}
	s.supersede(text)
	return nil
}

// Expose places text on the clipboard and clears it after ttl if the
// clipboard still holds exactly text at that point. Exposing the same text
// twice schedules two independent checks.
func (s *Scheduler) Expose(text string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard.Set(text); err != nil {
		return err
	}
	s.supersede(text)

	id := s.next
	s.next++
	e := &exposure{text: text, deadline: time.Now().Add(ttl)}
	e.timer = time.AfterFunc(ttl, func() { s.fire(id) })
	s.pending[id] = e

	s.logger.Debugf("Clipboard exposure %d scheduled, clears at %s", id, e.deadline.Format(time.TimeOnly))
	return nil
}

// Pending returns the number of exposures waiting for their deadline
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Wait blocks until no exposure is pending
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.pending) > 0 {
		s.idle.Wait()
	}
}

// Flush runs every pending check immediately
func (s *Scheduler) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, id)
		s.clearIfUnchanged(e.text)
	}
	s.idle.Broadcast()
}

func (s *Scheduler) fire(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[id]
	if !ok {
		return
	}
	delete(s.pending, id)
	s.clearIfUnchanged(e.text)
	s.idle.Broadcast()
}

// supersede drops pending exposures of text other than the one just copied.
// Caller must hold mu.
func (s *Scheduler) supersede(text string) {
	dropped := false
	for id, e := range s.pending {
		if e.text != text {
			e.timer.Stop()
			delete(s.pending, id)
			dropped = true
		}
	}
	if dropped {
		s.idle.Broadcast()
	}
}

// clearIfUnchanged compares and clears under the guard lock
func (s *Scheduler) clearIfUnchanged(text string) {
	err := s.guard.Do(func(sink Sink) error {
		current, err := sink.Get()
		if err != nil {
			return &Error{Op: "get", Err: err}
		}
		if current != text {
			return nil
		}
		if err := sink.Clear(); err != nil {
			return &Error{Op: "clear", Err: err}
		}
		s.logger.Debug("Clipboard cleared")
		return nil
	})
	if err != nil {
		s.logger.Warnf("Clipboard expiry check failed: %v", err)
	}
}
