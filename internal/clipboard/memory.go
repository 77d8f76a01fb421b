package clipboard

import "sync"

// Memory is an in-process Sink for headless runs and tests
type Memory struct {
	mu     sync.Mutex
	text   string
	sets   []string
	clears int
}

// NewMemory creates an empty in-process clipboard
func NewMemory() *Memory {
	return &Memory{}
}

// Opener returns an Opener that always yields m
func (m *Memory) Opener() Opener {
	return func() (Sink, error) { return m, nil }
}

func (m *Memory) Set(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.sets = append(m.sets, text)
	return nil
}

func (m *Memory) Get() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = ""
	m.clears++
	return nil
}

// Sets returns every text written so far, oldest first
func (m *Memory) Sets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sets...)
}

// Clears returns how many times the clipboard was cleared
func (m *Memory) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}
