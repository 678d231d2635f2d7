// Package clipboard stores and fetches the text of matches.
// If available it uses the system clipboard,
// but if unavailable it falls back to a memory buffer.
//
// It is a wrapper on top of github.com/atotto/clipboard.
package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
)

// A Clipboard stores and fetches text.
// Implementations support concurrent access.
type Clipboard interface {
	// Store replaces the clipboard text.
	Store(string) error
	// Fetch returns the clipboard text.
	Fetch() (string, error)
}

// New returns the system clipboard if it is available,
// and otherwise a new, empty memory clipboard.
func New() Clipboard {
	if clipboard.Unsupported {
		return NewMem()
	}
	return system{}
}

// NewMem returns a new, empty, memory-based clipboard.
func NewMem() Clipboard { return &mem{} }

type system struct{}

func (system) Store(text string) error { return clipboard.WriteAll(text) }
func (system) Fetch() (string, error)  { return clipboard.ReadAll() }

type mem struct {
	mu   sync.Mutex
	text string
}

func (m *mem) Store(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

func (m *mem) Fetch() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}
