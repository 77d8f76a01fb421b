// Package engine owns the credential index and the operation dispatcher and
// binds every operation kind to the work it does.
package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nikicat/pass-engine/internal/clipboard"
	"github.com/nikicat/pass-engine/internal/dispatch"
	"github.com/nikicat/pass-engine/internal/secret"
	"github.com/nikicat/pass-engine/internal/store"
)

// Options holds the collaborators of an Engine
type Options struct {
	// StorePath is the root of the password store
	StorePath string

	// Extension is the entry suffix without the dot
	Extension string

	// Source decrypts entries
	Source store.Source

	// Clipboard copies and scrubs secrets
	Clipboard *clipboard.Scheduler

	// Window is how long copied secrets stay on the clipboard
	Window time.Duration

	// Now returns the time used for OTP codes; defaults to time.Now
	Now func() time.Time

	Logger *log.Logger
}

// Engine is the long-lived consumer of the store: it keeps the index and
// dispatches operations on credentials
type Engine struct {
	opts       Options
	logger     *log.Logger
	queue      *dispatch.Queue
	dispatcher *dispatch.Dispatcher

	mu      sync.RWMutex
	entries []store.CredentialInfo
}

// New creates an engine. The index is empty until Refresh is called.
func New(ctx context.Context, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Window <= 0 {
		opts.Window = clipboard.DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		opts:   opts,
		logger: opts.Logger,
		queue:  dispatch.NewQueue(),
	}
	e.dispatcher = dispatch.New(e.queue, e.routines(),
		dispatch.WithContext(ctx),
		dispatch.WithLogger(opts.Logger),
	)
	return e
}

// Refresh rebuilds the index from the store directory
func (e *Engine) Refresh() error {
	entries, err := store.Build(e.opts.StorePath, e.opts.Extension, e.logger)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.entries = entries
	e.mu.Unlock()

	e.logger.Debugf("Indexed %d entries in %s", len(entries), e.opts.StorePath)
	return nil
}

// Entries returns the current index snapshot, sorted by ID
func (e *Engine) Entries() []store.CredentialInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.entries
}

// Lookup returns the indexed entry with the given ID
func (e *Engine) Lookup(id string) (store.CredentialInfo, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, info := range e.entries {
		if info.ID == id {
			return info, true
		}
	}
	return store.CredentialInfo{}, false
}

// Request dispatches kind for id; see dispatch.Dispatcher.Request
func (e *Engine) Request(kind dispatch.Kind, id string) (string, bool) {
	return e.dispatcher.Request(kind, id)
}

func (e *Engine) CopyID(id string) (string, bool)       { return e.Request(dispatch.CopyID, id) }
func (e *Engine) CopyPassword(id string) (string, bool) { return e.Request(dispatch.CopyPassword, id) }
func (e *Engine) CopyLogin(id string) (string, bool)    { return e.Request(dispatch.CopyLogin, id) }
func (e *Engine) CopyOTP(id string) (string, bool)      { return e.Request(dispatch.CopyOTP, id) }
func (e *Engine) FetchOTP(id string) (string, bool)     { return e.Request(dispatch.FetchOTP, id) }
func (e *Engine) FetchEntry(id string) (string, bool)   { return e.Request(dispatch.FetchEntry, id) }

// Events returns the channel every operation result is delivered on
func (e *Engine) Events() <-chan dispatch.Event {
	return e.queue.C()
}

// Wait blocks until every dispatched operation has delivered its event
func (e *Engine) Wait() {
	e.dispatcher.Wait()
}

// WaitClipboard blocks until every exposed secret has been scrubbed
func (e *Engine) WaitClipboard() {
	e.opts.Clipboard.Wait()
}

// Close waits for running operations, scrubs the clipboard and closes the
// event channel once the remaining events are consumed
func (e *Engine) Close() {
	e.dispatcher.Wait()
	e.opts.Clipboard.Flush()
	e.queue.Close()
}

func (e *Engine) routines() map[dispatch.Kind]dispatch.Routine {
	return map[dispatch.Kind]dispatch.Routine{
		dispatch.CopyID:       e.copyID,
		dispatch.CopyPassword: e.copyField("Password", secret.Password),
		dispatch.CopyLogin:    e.copyField("Login", secret.Login),
		dispatch.CopyOTP:      e.copyField("One-time password", e.otpCode),
		dispatch.FetchOTP:     e.fetchOTP,
		dispatch.FetchEntry:   e.fetchEntry,
	}
}

func (e *Engine) copyID(ctx context.Context, id string) (dispatch.Event, error) {
	if err := store.ValidateID(id); err != nil {
		return dispatch.Event{}, err
	}
	if err := e.opts.Clipboard.Copy(id); err != nil {
		return dispatch.Event{}, err
	}
	return dispatch.Status("ID copied to clipboard"), nil
}

// copyField decrypts the entry, extracts one field and exposes it on the
// clipboard for the configured window
func (e *Engine) copyField(label string, extract func(string) (string, error)) dispatch.Routine {
	return func(ctx context.Context, id string) (dispatch.Event, error) {
		text, err := e.opts.Source.Contents(ctx, id)
		if err != nil {
			return dispatch.Event{}, err
		}
		value, err := extract(text)
		if err != nil {
			return dispatch.Event{}, err
		}
		if err := e.opts.Clipboard.Expose(value, e.opts.Window); err != nil {
			return dispatch.Event{}, err
		}
		return dispatch.Status(fmt.Sprintf("%s copied to clipboard, clears after %s", label, formatWindow(e.opts.Window))), nil
	}
}

func (e *Engine) fetchOTP(ctx context.Context, id string) (dispatch.Event, error) {
	text, err := e.opts.Source.Contents(ctx, id)
	if err != nil {
		return dispatch.Event{}, err
	}
	code, err := e.otpCode(text)
	if err != nil {
		return dispatch.Event{}, err
	}
	return dispatch.Secret(dispatch.FieldOTP, code), nil
}

func (e *Engine) fetchEntry(ctx context.Context, id string) (dispatch.Event, error) {
	text, err := e.opts.Source.Contents(ctx, id)
	if err != nil {
		return dispatch.Event{}, err
	}
	return dispatch.Secret(dispatch.FieldEntry, text), nil
}

func (e *Engine) otpCode(text string) (string, error) {
	return secret.OTPCode(text, e.opts.Now())
}

// formatWindow renders a window as "45 seconds" or "2 minutes"
func formatWindow(d time.Duration) string {
	if d%time.Minute == 0 && d >= time.Minute {
		n := int(d / time.Minute)
		if n == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", n)
	}
	n := int(math.Ceil(d.Seconds()))
	if n == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", n)
}
