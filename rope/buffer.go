package rope

import (
	"io"
	"os"
	"sync"
)

// A Buffer is a mutable handle on a Rope.
// Edits replace the Rope; readers see a consistent snapshot.
// A Buffer is safe for concurrent use.
type Buffer struct {
	mu      sync.RWMutex
	rope    Rope
	version int
}

// NewBuffer returns a new Buffer holding the given Rope.
func NewBuffer(r Rope) *Buffer {
	if r == nil {
		r = Empty()
	}
	return &Buffer{rope: r}
}

// NewBufferString returns a new Buffer holding the string.
func NewBufferString(s string) *Buffer { return NewBuffer(New(s)) }

// LoadFile returns a new Buffer holding the contents of a file.
func LoadFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := ReadFrom(f)
	if err != nil {
		return nil, err
	}
	return NewBuffer(r), nil
}

// Rope returns the current contents.
func (b *Buffer) Rope() Rope {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rope
}

// Len returns the length of the buffer in bytes.
func (b *Buffer) Len() int64 { return b.Rope().Len() }

// String returns the contents as a string.
func (b *Buffer) String() string { return b.Rope().String() }

// WriteTo writes the contents to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) { return b.Rope().WriteTo(w) }

// Version returns a number that increases with every edit.
func (b *Buffer) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Window returns a copy of the bytes in [start, end),
// clamped to the bounds of the buffer.
func (b *Buffer) Window(start, end int64) []byte {
	return Window(b.Rope(), start, end)
}

// Insert inserts text at byte offset at.
// Insert panics if at is out of bounds.
func (b *Buffer) Insert(at int64, text string) {
	b.edit(func(r Rope) Rope { return Insert(r, at, New(text)) })
}

// Delete deletes n bytes beginning at byte offset at.
// Delete panics if the range is out of bounds.
func (b *Buffer) Delete(at, n int64) {
	b.edit(func(r Rope) Rope { return Delete(r, at, n) })
}

// Set replaces the contents of the buffer.
func (b *Buffer) Set(r Rope) {
	b.edit(func(Rope) Rope { return r })
}

func (b *Buffer) edit(f func(Rope) Rope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rope = f(b.rope)
	b.version++
}
