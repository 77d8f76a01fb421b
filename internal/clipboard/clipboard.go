// Package clipboard owns access to the system clipboard and scrubs copied
// secrets after an exposure window.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when no clipboard can be opened
var ErrUnavailable = errors.New("clipboard unavailable")

// Error is a failed clipboard operation
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("clipboard %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Sink is a clipboard that can be written, read back and cleared
type Sink interface {
	Set(text string) error
	Get() (string, error)
	Clear() error
}

// Opener opens a Sink
type Opener func() (Sink, error)

// System is the platform clipboard
type System struct{}

// OpenSystem opens the platform clipboard
func OpenSystem() (Sink, error) {
	if clipboard.Unsupported {
		return nil, ErrUnavailable
	}
	return &System{}, nil
}

func (s *System) Set(text string) error {
	return clipboard.WriteAll(text)
}

func (s *System) Get() (string, error) {
	return clipboard.ReadAll()
}

func (s *System) Clear() error {
	return clipboard.WriteAll("")
}

// Guard serializes every access to a lazily opened Sink.
// The sink is opened on first use; a failed open is retried on the next use.
type Guard struct {
	mu   sync.Mutex
	open Opener
	sink Sink
}

// NewGuard creates a guard that opens its sink with open
func NewGuard(open Opener) *Guard {
	return &Guard{open: open}
}

// Do runs fn with exclusive access to the sink
func (g *Guard) Do(fn func(Sink) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sink == nil {
		sink, err := g.open()
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		g.sink = sink
	}
	return fn(g.sink)
}

// Set places text on the clipboard
func (g *Guard) Set(text string) error {
	return g.Do(func(s Sink) error {
		if err := s.Set(text); err != nil {
			return &Error{Op: "set", Err: err}
		}
		return nil
	})
}

// Get returns the current clipboard text
func (g *Guard) Get() (string, error) {
	var text string
	err := g.Do(func(s Sink) error {
		var err error
		text, err = s.Get()
		if err != nil {
			return &Error{Op: "get", Err: err}
		}
		return nil
	})
	return text, err
}

// Clear empties the clipboard
func (g *Guard) Clear() error {
	return g.Do(func(s Sink) error {
		if err := s.Clear(); err != nil {
			return &Error{Op: "clear", Err: err}
		}
		return nil
	})
}
