package rope

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAndReadFrom(t *testing.T) {
	tests := []string{
		"",
		"Hello, World",
		"Hello, 世界",
		strings.Repeat("Hello, 世界", smallSize*2/len("Hello, 世界")),
	}
	for _, test := range tests {
		r0 := New(test)
		r1, err := ReadFrom(strings.NewReader(test))
		if err != nil {
			t.Errorf("ReadFrom(%q)=_,%v", test, err)
			continue
		}
		for _, r := range []Rope{r0, r1} {
			if got := r.String(); got != test || r.Len() != int64(len(test)) {
				t.Errorf("got %q (len %d), want %q (len %d)", got, r.Len(), test, len(test))
			}
		}
	}
	if e := Empty(); e.Len() != 0 || e.String() != "" {
		t.Errorf("Empty()=%q", e)
	}
}

// Appending an empty rope returns the other one.
func TestAppendEmpty(t *testing.T) {
	x := New("x")
	if r := Append(Empty(), x); r != x {
		t.Errorf("Append(Empty(), x)=%#v, want x", r)
	}
	if r := Append(x, Empty()); r != x {
		t.Errorf("Append(x, Empty())=%#v, want x", r)
	}
}

func TestEdits(t *testing.T) {
	tests := []struct {
		name string
		edit func(Rope) Rope
		want string
	}{
		{"insert front", func(r Rope) Rope { return Insert(r, 0, New(">")) }, ">Hello, World!"},
		{"insert back", func(r Rope) Rope { return Insert(r, 13, New("<")) }, "Hello, World!<"},
		{"insert mid", func(r Rope) Rope { return Insert(r, 5, New(" there")) }, "Hello there, World!"},
		{"delete front", func(r Rope) Rope { return Delete(r, 0, 7) }, "World!"},
		{"delete across leaves", func(r Rope) Rope { return Delete(r, 3, 6) }, "Helrld!"},
		{"delete none", func(r Rope) Rope { return Delete(r, 4, 0) }, "Hello, World!"},
		{"split left", func(r Rope) Rope { l, _ := Split(r, 8); return l }, "Hello, W"},
		{"split right", func(r Rope) Rope { _, rt := Split(r, 8); return rt }, "orld!"},
	}
	for _, test := range tests {
		r := test.edit(deepRope)
		if got := r.String(); got != test.want || r.Len() != int64(len(test.want)) {
			t.Errorf("%s: got %q (len %d), want %q", test.name, got, r.Len(), test.want)
		}
		if deepRope.String() != deepText {
			t.Fatalf("%s: modified the original rope", test.name)
		}
	}
}

func TestDeepRopeLen(t *testing.T) {
	if deepRope.Len() != int64(len(deepText)) {
		t.Fatalf("deepRope.Len()=%d, want %d", deepRope.Len(), len(deepText))
	}
	var check func(Rope)
	check = func(r Rope) {
		n, ok := r.(*node)
		if !ok {
			return
		}
		if sum := n.left.Len() + n.right.Len(); n.len != sum {
			t.Errorf("node %q has len %d, want %d", n.String(), n.len, sum)
		}
		check(n.left)
		check(n.right)
	}
	check(deepRope)
}

func TestSplitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Split(r, r.Len()+1) did not panic")
		}
	}()
	Split(deepRope, deepRope.Len()+1)
}

var (
	deepRope, deepText = func() (Rope, string) {
		r := &node{
			left: &leaf{},
			right: &node{
				left: &node{
					left: &node{
						left: &leaf{text: "H"},
						right: &node{
							left:  &leaf{text: "e"},
							right: &leaf{},
							len:   1,
						},
						len: 2,
					},
					right: &node{
						left:  &leaf{text: "l"},
						right: &leaf{text: "l"},
						len:   2,
					},
					len: 4,
				},
				right: &node{
					left: &node{
						left:  &leaf{text: "o"},
						right: &leaf{text: ", "},
						len:   3,
					},
					right: &node{
						left: &node{
							left:  &leaf{text: "World"},
							right: &leaf{text: "!"},
							len:   6,
						},
						right: &leaf{},
						len:   6,
					},
					len: 9,
				},
				len: 13,
			},
			len: 13,
		}
		return r, "Hello, World!"
	}()
)

func TestWindow(t *testing.T) {
	tests := []struct {
		start, end int64
		want       string
	}{
		{start: 0, end: 0, want: ""},
		{start: 0, end: 13, want: "Hello, World!"},
		{start: 1, end: 4, want: "ell"},
		{start: 3, end: 9, want: "lo, Wo"},
		{start: -5, end: 2, want: "He"},
		{start: 12, end: 100, want: "!"},
		{start: 9, end: 3, want: ""},
	}
	for _, test := range tests {
		if got := string(Window(deepRope, test.start, test.end)); got != test.want {
			t.Errorf("Window(%q, %d, %d)=%q, want %q", deepRope, test.start, test.end, got, test.want)
		}
	}
}

type errReader struct{ err error }

func (r errReader) Read(p []byte) (int, error) {
	n := copy(p, "abc")
	return n, r.err
}

func TestReadFromError(t *testing.T) {
	bad := errors.New("bad")
	r, err := ReadFrom(errReader{err: bad})
	if err != bad {
		t.Fatalf("ReadFrom()=_,%v, want %v", err, bad)
	}
	if s := r.String(); s != "abc" {
		t.Errorf("ReadFrom()=%q, want \"abc\"", s)
	}
}

func TestBuffer(t *testing.T) {
	b := NewBufferString("Hello, World")
	if v := b.Version(); v != 0 {
		t.Errorf("Version()=%d, want 0", v)
	}
	b.Insert(5, " there")
	b.Delete(0, 1)
	b.Insert(0, "h")
	if s := b.String(); s != "hello there, World" {
		t.Errorf("String()=%q, want \"hello there, World\"", s)
	}
	if v := b.Version(); v != 3 {
		t.Errorf("Version()=%d, want 3", v)
	}
	if l := b.Len(); l != int64(len("hello there, World")) {
		t.Errorf("Len()=%d", l)
	}
	if w := string(b.Window(6, 11)); w != "there" {
		t.Errorf("Window(6, 11)=%q, want \"there\"", w)
	}

	snap := b.Rope()
	b.Set(New("x"))
	if s := snap.String(); s != "hello there, World" {
		t.Errorf("snapshot changed to %q", s)
	}
}
