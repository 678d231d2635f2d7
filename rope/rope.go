// Package rope implements Ropes, a copy-on-write, string-like data structure
// that is optimized for efficient modification of large sequences of bytes
// at the cost of more expensive random-access.
//
// Random access is by window:
// Window copies out the bytes of a range,
// visiting only the leaves that overlap it.
package rope

import (
	"io"
	"strings"
)

// Rope is a copy-on-write string, optimized for concatenation and splitting.
type Rope interface {
	Len() int64
	String() string
	WriteTo(io.Writer) (int64, error)
}

type node struct {
	left, right Rope
	len         int64
}

func (n *node) Len() int64 { return n.len }

func (n *node) String() string {
	var s strings.Builder
	n.WriteTo(&s)
	return s.String()
}

func (n *node) WriteTo(w io.Writer) (int64, error) {
	nleft, err := n.left.WriteTo(w)
	if err != nil {
		return nleft, err
	}
	nright, err := n.right.WriteTo(w)
	return nleft + nright, err
}

type leaf struct {
	text string
}

func (l *leaf) Len() int64     { return int64(len(l.text)) }
func (l *leaf) String() string { return l.text }

func (l *leaf) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, l.text)
	return int64(n), err
}

// Empty returns an empty Rope.
func Empty() Rope { return New("") }

// New returns a new Rope of the given string.
func New(text string) Rope { return &leaf{text: text} }

// ReadFrom returns a new Rope containing
// all of the bytes read from a reader until io.EOF.
// On error, the returned Rope contains any bytes
// read from the Reader before the error.
func ReadFrom(r io.Reader) (Rope, error) {
	buf := make([]byte, chunkSize)
	rope := Empty()
	for {
		n, err := r.Read(buf)
		rope = Append(rope, New(string(buf[:n])))
		switch {
		case err == io.EOF:
			return rope, nil
		case err != nil:
			return rope, err
		}
	}
}

const (
	smallSize = 32
	chunkSize = 32 * 1024
)

// Append returns the concatenation of l and then r.
func Append(l, r Rope) Rope {
	switch {
	case l.Len() == 0:
		return r
	case r.Len() == 0:
		return l
	case l.Len()+r.Len() <= smallSize:
		return &leaf{text: l.String() + r.String()}
	}
	if l, ok := l.(*node); ok && l.right.Len()+r.Len() <= smallSize {
		return &node{
			left:  l.left,
			right: &leaf{text: l.right.String() + r.String()},
			len:   l.Len() + r.Len(),
		}
	}
	return &node{left: l, right: r, len: l.Len() + r.Len()}
}

// Split returns two new Ropes, the first contains the first i bytes,
// and the second contains the remaining.
// Split panics if i < 0 || i > r.Len().
func Split(r Rope, i int64) (left, right Rope) {
	if i < 0 || i > r.Len() {
		panic("rope: index out of bounds")
	}
	switch r := r.(type) {
	case *leaf:
		return New(r.text[:i]), New(r.text[i:])
	case *node:
		if i <= r.left.Len() {
			l0, l1 := Split(r.left, i)
			return l0, Append(l1, r.right)
		}
		r0, r1 := Split(r.right, i-r.left.Len())
		return Append(r.left, r0), r1
	default:
		panic("impossible")
	}
}

// Delete deletes n bytes from r beginning at index start.
// Delete panics if start < 0, n < 0, or start+n > r.Len().
func Delete(r Rope, start, n int64) Rope {
	if n < 0 {
		panic("rope: negative count")
	}
	front, rest := Split(r, start)
	_, back := Split(rest, n)
	return Append(front, back)
}

// Insert inserts ins into r at index i.
// Insert panics if i < 0 or i > r.Len().
func Insert(r Rope, i int64, ins Rope) Rope {
	front, back := Split(r, i)
	return Append(Append(front, ins), back)
}

// Window returns a copy of the bytes
// between start (inclusive) and end (exclusive).
// The range is clamped to the bounds of the rope.
func Window(r Rope, start, end int64) []byte {
	if start < 0 {
		start = 0
	}
	if end > r.Len() {
		end = r.Len()
	}
	if start >= end {
		return []byte{}
	}
	return appendRange(make([]byte, 0, end-start), r, start, end)
}

func appendRange(dst []byte, r Rope, start, end int64) []byte {
	switch r := r.(type) {
	case *leaf:
		return append(dst, r.text[start:end]...)
	case *node:
		n := r.left.Len()
		if start < n {
			dst = appendRange(dst, r.left, start, min64(end, n))
		}
		if end > n {
			dst = appendRange(dst, r.right, max64(start-n, 0), end-n)
		}
		return dst
	default:
		panic("impossible")
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
