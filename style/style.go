// Package style describes how highlighted text looks.
package style

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Default is the name of the style that every grammar must have.
const Default = "default"

// DefaultSize is the font size in points used when a spec gives none.
const DefaultSize = 11

// A Style describes the color, font, and size of text.
type Style struct {
	// FG and BG are the foreground and background colors of the text.
	FG, BG color.Color
	// Face is the font face, describing the font and size.
	font.Face
}

// Merge returns other with any nil fields
// replaced by the corresponding field of sty.
func (sty Style) Merge(other Style) Style {
	if other.FG == nil {
		other.FG = sty.FG
	}
	if other.BG == nil {
		other.BG = sty.BG
	}
	if other.Face == nil {
		other.Face = sty.Face
	}
	return other
}

// Equal reports whether two styles look the same.
// Colors are compared by their RGBA values and faces by identity.
func Equal(a, b Style) bool {
	return colorEqual(a.FG, b.FG) && colorEqual(a.BG, b.BG) && a.Face == b.Face
}

func colorEqual(a, b color.Color) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

// A Table maps style names to styles.
type Table map[string]Style

// ParseTable parses a map of style names to style specs.
func ParseTable(specs map[string]string) (Table, error) {
	t := make(Table, len(specs))
	for name, spec := range specs {
		sty, err := Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("style %s: %w", name, err)
		}
		t[name] = sty
	}
	return t, nil
}

// Parse parses a style spec.
// A spec is a space-separated list of items:
//
//	fg=#rrggbb  the foreground color (#rgb and #rrggbbaa work too)
//	bg=#rrggbb  the background color
//	bold, italic, mono  the font variant
//	size=n  the font size in points
//
// A spec naming no font item leaves the face nil.
func Parse(spec string) (Style, error) {
	var sty Style
	var v variant
	size := 0
	hasFace := false
	for _, item := range strings.Fields(spec) {
		key, val, hasVal := strings.Cut(item, "=")
		var err error
		switch {
		case key == "fg" && hasVal:
			sty.FG, err = parseColor(val)
		case key == "bg" && hasVal:
			sty.BG, err = parseColor(val)
		case key == "size" && hasVal:
			size, err = strconv.Atoi(val)
			if err == nil && size <= 0 {
				err = fmt.Errorf("bad size %d", size)
			}
			hasFace = true
		case key == "bold" && !hasVal:
			v.bold, hasFace = true, true
		case key == "italic" && !hasVal:
			v.italic, hasFace = true, true
		case key == "mono" && !hasVal:
			v.mono, hasFace = true, true
		default:
			err = fmt.Errorf("unknown item %q", item)
		}
		if err != nil {
			return Style{}, err
		}
	}
	if hasFace {
		if size == 0 {
			size = DefaultSize
		}
		face, err := Face(v.bold, v.italic, v.mono, size)
		if err != nil {
			return Style{}, err
		}
		sty.Face = face
	}
	return sty, nil
}

func parseColor(s string) (color.Color, error) {
	if !strings.HasPrefix(s, "#") {
		return nil, fmt.Errorf("bad color %q", s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return nil, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("bad color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

type variant struct {
	bold, italic, mono bool
}

type faceKey struct {
	variant
	size int
}

var (
	facesMu sync.Mutex
	faces   = map[faceKey]font.Face{}
	fonts   = map[variant]*truetype.Font{}
)

// Face returns the Go font face of the given variant and size in points.
// Faces are cached, so equal arguments give the identical face.
// There is no mono italic variant; mono ignores italic.
func Face(bold, italic, mono bool, size int) (font.Face, error) {
	v := variant{bold: bold, italic: italic && !mono, mono: mono}
	k := faceKey{variant: v, size: size}
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[k]; ok {
		return f, nil
	}
	f, ok := fonts[v]
	if !ok {
		var err error
		if f, err = truetype.Parse(ttf(v)); err != nil {
			return nil, err
		}
		fonts[v] = f
	}
	face := truetype.NewFace(f, &truetype.Options{Size: float64(size)})
	faces[k] = face
	return face, nil
}

func ttf(v variant) []byte {
	switch {
	case v.mono && v.bold:
		return gomonobold.TTF
	case v.mono:
		return gomono.TTF
	case v.bold && v.italic:
		return gobolditalic.TTF
	case v.bold:
		return gobold.TTF
	case v.italic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}
