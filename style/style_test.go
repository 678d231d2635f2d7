package style

import (
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

func TestStyleMerge(t *testing.T) {
	face1, face2 := testFace{1}, testFace{2}
	tests := []struct {
		a, b Style
		want Style
	}{
		{
			a:    Style{},
			b:    Style{},
			want: Style{},
		},
		{
			a:    Style{FG: color.White},
			b:    Style{FG: color.Black},
			want: Style{FG: color.Black},
		},
		{
			a:    Style{FG: color.White},
			b:    Style{BG: color.Black},
			want: Style{FG: color.White, BG: color.Black},
		},
		{
			a:    Style{BG: color.White},
			b:    Style{Face: face1},
			want: Style{BG: color.White, Face: face1},
		},
		{
			a:    Style{Face: face1},
			b:    Style{Face: face2},
			want: Style{Face: face2},
		},
		{
			a:    Style{FG: color.White, BG: color.Black, Face: face1},
			b:    Style{FG: color.Black, BG: color.White, Face: face2},
			want: Style{FG: color.Black, BG: color.White, Face: face2},
		},
	}
	for _, test := range tests {
		got := test.a.Merge(test.b)
		if got != test.want {
			t.Errorf("(%v).Merge(%v)=%v, want %v", test.a, test.b, got, test.want)
		}
	}
}

func TestEqual(t *testing.T) {
	face := testFace{1}
	tests := []struct {
		a, b Style
		want bool
	}{
		{a: Style{}, b: Style{}, want: true},
		{a: Style{FG: color.White}, b: Style{FG: color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}}, want: true},
		{a: Style{FG: color.White}, b: Style{}, want: false},
		{a: Style{BG: color.Black}, b: Style{BG: color.White}, want: false},
		{a: Style{Face: face}, b: Style{Face: face}, want: true},
		{a: Style{Face: face}, b: Style{Face: testFace{2}}, want: false},
	}
	for _, test := range tests {
		if got := Equal(test.a, test.b); got != test.want {
			t.Errorf("Equal(%v, %v)=%v, want %v", test.a, test.b, got, test.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		spec    string
		fg, bg  color.Color
		hasFace bool
		err     bool
	}{
		{spec: ""},
		{spec: "fg=#102834", fg: color.NRGBA{R: 0x10, G: 0x28, B: 0x34, A: 0xFF}},
		{spec: "bg=#fff", bg: color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}},
		{spec: "fg=#10283480", fg: color.NRGBA{R: 0x10, G: 0x28, B: 0x34, A: 0x80}},
		{spec: "fg=#000000 bold", fg: color.NRGBA{A: 0xFF}, hasFace: true},
		{spec: "italic size=14", hasFace: true},
		{spec: "fg=red", err: true},
		{spec: "fg=#12345", err: true},
		{spec: "size=0", err: true},
		{spec: "underline", err: true},
		{spec: "bold=1", err: true},
	}
	for _, test := range tests {
		sty, err := Parse(test.spec)
		if test.err {
			if err == nil {
				t.Errorf("Parse(%q)=_,nil, want error", test.spec)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q)=_,%v", test.spec, err)
			continue
		}
		want := Style{FG: test.fg, BG: test.bg, Face: sty.Face}
		if !Equal(sty, want) || (sty.Face != nil) != test.hasFace {
			t.Errorf("Parse(%q)=%v, want %v (face %v)", test.spec, sty, want, test.hasFace)
		}
	}
}

func TestFaceCached(t *testing.T) {
	a, err := Face(true, false, false, 12)
	if err != nil {
		t.Fatalf("Face()=_,%v", err)
	}
	b, _ := Face(true, false, false, 12)
	if a != b {
		t.Errorf("equal arguments gave different faces")
	}
	c, _ := Face(true, false, false, 13)
	if a == c {
		t.Errorf("different sizes gave the same face")
	}
	d, _ := Face(false, true, true, 12)
	e, _ := Face(false, false, true, 12)
	if d != e {
		t.Errorf("mono italic differs from mono")
	}

	s1, _ := Parse("bold size=12")
	s2, _ := Parse("fg=#000 bold size=12")
	if s1.Face != s2.Face || s1.Face != a {
		t.Errorf("Parse gave different faces for the same variant")
	}
}

func TestParseTable(t *testing.T) {
	tab, err := ParseTable(map[string]string{
		Default:   "fg=#000",
		"keyword": "bold",
	})
	if err != nil {
		t.Fatalf("ParseTable()=_,%v", err)
	}
	if len(tab) != 2 || tab["keyword"].Face == nil {
		t.Errorf("ParseTable()=%v", tab)
	}
	if _, err := ParseTable(map[string]string{"x": "fg=nope"}); err == nil {
		t.Errorf("ParseTable with a bad spec succeeded")
	}
}

type testFace struct{ int }

func (testFace) Close() error { panic("unimplemented") }
func (testFace) Glyph(fixed.Point26_6, rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	panic("unimplemented")
}
func (testFace) GlyphBounds(rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) { panic("unimplemented") }
func (testFace) GlyphAdvance(rune) (fixed.Int26_6, bool)                     { panic("unimplemented") }
func (testFace) Kern(rune, rune) fixed.Int26_6                               { panic("unimplemented") }
func (testFace) Metrics() font.Metrics                                       { panic("unimplemented") }
