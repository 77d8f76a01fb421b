package clipboard

import (
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() (*Scheduler, *Memory) {
	mem := NewMemory()
	return NewScheduler(NewGuard(mem.Opener()), log.New(io.Discard)), mem
}

func current(t *testing.T, m *Memory) string {
	t.Helper()
	text, err := m.Get()
	require.NoError(t, err)
	return text
}

func TestExposeClearsUnchangedText(t *testing.T) {
	s, mem := newTestScheduler()

	require.NoError(t, s.Expose("secret1", 20*time.Millisecond))
	assert.Equal(t, "secret1", current(t, mem))
	assert.Equal(t, 1, s.Pending())

	s.Wait()
	assert.Equal(t, "", current(t, mem))
	assert.Equal(t, 1, mem.Clears())
	assert.Equal(t, 0, s.Pending())
}

func TestExposeKeepsOverwrittenText(t *testing.T) {
	s, mem := newTestScheduler()

	require.NoError(t, s.Expose("secret1", 30*time.Millisecond))
	// the user copies something else outside of the scheduler
	require.NoError(t, mem.Set("secret2"))

	s.Wait()
	assert.Equal(t, "secret2", current(t, mem))
	assert.Equal(t, 0, mem.Clears())
}

func TestCopyDoesNotSchedule(t *testing.T) {
	s, mem := newTestScheduler()

	require.NoError(t, s.Copy("web/example"))
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, "web/example", current(t, mem))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "web/example", current(t, mem))
}

func TestExposeSameTextTwice(t *testing.T) {
	s, mem := newTestScheduler()

	require.NoError(t, s.Expose("secret1", 20*time.Millisecond))
	require.NoError(t, s.Expose("secret1", 40*time.Millisecond))
	assert.Equal(t, 2, s.Pending())

	s.Wait()
	assert.Equal(t, "", current(t, mem))
	// the second check finds an empty clipboard and leaves it alone
	assert.Equal(t, 1, mem.Clears())
}

func TestExposeSupersedesOtherText(t *testing.T) {
	s, mem := newTestScheduler()

	require.NoError(t, s.Expose("secret1", time.Hour))
	require.NoError(t, s.Expose("secret2", 20*time.Millisecond))
	assert.Equal(t, 1, s.Pending())

	s.Wait()
	assert.Equal(t, "", current(t, mem))

	require.NoError(t, s.Expose("secret3", time.Hour))
	require.NoError(t, s.Copy("web/example"))
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, "web/example", current(t, mem))
}

func TestFlush(t *testing.T) {
	s, mem := newTestScheduler()

	require.NoError(t, s.Expose("secret1", time.Hour))
	s.Flush()

	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, "", current(t, mem))

	require.NoError(t, s.Expose("secret2", time.Hour))
	require.NoError(t, mem.Set("other"))
	s.Flush()
	assert.Equal(t, "other", current(t, mem))
}

func TestGuardOpensLazilyOnce(t *testing.T) {
	mem := NewMemory()
	var opens atomic.Int32
	g := NewGuard(func() (Sink, error) {
		opens.Add(1)
		return mem, nil
	})
	assert.Equal(t, int32(0), opens.Load())

	require.NoError(t, g.Set("a"))
	text, err := g.Get()
	require.NoError(t, err)
	assert.Equal(t, "a", text)
	require.NoError(t, g.Clear())

	assert.Equal(t, int32(1), opens.Load())
}

func TestGuardRetriesFailedOpen(t *testing.T) {
	mem := NewMemory()
	fail := true
	g := NewGuard(func() (Sink, error) {
		if fail {
			return nil, errors.New("no display")
		}
		return mem, nil
	})

	err := g.Set("a")
	assert.ErrorIs(t, err, ErrUnavailable)

	fail = false
	require.NoError(t, g.Set("a"))
	assert.Equal(t, []string{"a"}, mem.Sets())
}

type brokenSink struct{}

func (brokenSink) Set(string) error     { return errors.New("set failed") }
func (brokenSink) Get() (string, error) { return "", errors.New("get failed") }
func (brokenSink) Clear() error         { return errors.New("clear failed") }

func TestGuardWrapsSinkErrors(t *testing.T) {
	g := NewGuard(func() (Sink, error) { return brokenSink{}, nil })

	var cerr *Error
	require.ErrorAs(t, g.Set("a"), &cerr)
	assert.Equal(t, "set", cerr.Op)

	_, err := g.Get()
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "get", cerr.Op)

	require.ErrorAs(t, g.Clear(), &cerr)
	assert.Equal(t, "clear", cerr.Op)
}

func TestExposeFailsWithoutScheduling(t *testing.T) {
	s := NewScheduler(NewGuard(func() (Sink, error) { return brokenSink{}, nil }), log.New(io.Discard))

	err := s.Expose("secret1", time.Hour)
	assert.Error(t, err)
	assert.Equal(t, 0, s.Pending())
}
