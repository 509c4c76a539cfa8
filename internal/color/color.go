package color

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned by Parse for values it cannot interpret.
var ErrInvalidColor = errors.New("invalid color")

// MaxContrast is the contrast between pure black and pure white. It is also
// the value Contrast returns when either side cannot be parsed.
const MaxContrast = 21.0

// MinContrast is the contrast of a color against itself.
const MinContrast = 1.0

// RGBA is an sRGB color with 8-bit channels.
type RGBA struct {
	R, G, B, A uint8
}

// Transparent reports whether the color is fully transparent.
func (c RGBA) Transparent() bool {
	return c.A == 0
}

// Hex returns the color as #rrggbb, dropping alpha.
func (c RGBA) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Parse interprets a CSS color value.
//
// Supported forms: #rgb, #rgba, #rrggbb, #rrggbbaa, rgb()/rgba() with integer
// or percentage channels, hsl()/hsla(), the keyword "transparent" and the
// CSS named colors. Matching is case-insensitive and ignores surrounding
// whitespace and a trailing !important.
func Parse(s string) (RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
	if v == "" {
		return RGBA{}, fmt.Errorf("%w: empty value", ErrInvalidColor)
	}

	switch {
	case strings.HasPrefix(v, "#"):
		return parseHex(v[1:])
	case strings.HasPrefix(v, "rgb"):
		return parseRGBFunc(v)
	case strings.HasPrefix(v, "hsl"):
		return parseHSLFunc(v)
	case v == "transparent":
		return RGBA{}, nil
	}

	if c, ok := colornames.Map[v]; ok {
		return RGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

func parseHex(h string) (RGBA, error) {
	switch len(h) {
	case 3, 4:
		// Expand shorthand: "abc" -> "aabbcc".
		var b strings.Builder
		for _, r := range h {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		h = b.String()
	case 6, 8:
	default:
		return RGBA{}, fmt.Errorf("%w: bad hex length %d", ErrInvalidColor, len(h))
	}

	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, h)
	}
	if len(h) == 6 {
		n = n<<8 | 0xff
	}
	return RGBA{
		R: uint8(n >> 24),
		G: uint8(n >> 16),
		B: uint8(n >> 8),
		A: uint8(n),
	}, nil
}

// funcArgs splits "name(a, b, c)" or "name(a b c / d)" into its arguments.
func funcArgs(v string) ([]string, error) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, v)
	}
	inner := v[open+1 : len(v)-1]
	inner = strings.NewReplacer(",", " ", "/", " ").Replace(inner)
	args := strings.Fields(inner)
	if len(args) != 3 && len(args) != 4 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, v)
	}
	return args, nil
}

func parseRGBFunc(v string) (RGBA, error) {
	args, err := funcArgs(v)
	if err != nil {
		return RGBA{}, err
	}

	var ch [3]uint8
	for i := range 3 {
		f, err := parseChannel(args[i], 255)
		if err != nil {
			return RGBA{}, err
		}
		ch[i] = uint8(math.Round(f))
	}

	a := uint8(255)
	if len(args) == 4 {
		alpha, err := parseAlpha(args[3])
		if err != nil {
			return RGBA{}, err
		}
		a = alpha
	}
	return RGBA{R: ch[0], G: ch[1], B: ch[2], A: a}, nil
}

func parseHSLFunc(v string) (RGBA, error) {
	args, err := funcArgs(v)
	if err != nil {
		return RGBA{}, err
	}

	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return RGBA{}, fmt.Errorf("%w: hue %q", ErrInvalidColor, args[0])
	}
	s, err := parseChannel(args[1], 1)
	if err != nil {
		return RGBA{}, err
	}
	l, err := parseChannel(args[2], 1)
	if err != nil {
		return RGBA{}, err
	}

	r, g, b := hslToRGB(math.Mod(math.Mod(h, 360)+360, 360)/360, s, l)
	c := RGBA{
		R: uint8(math.Round(r * 255)),
		G: uint8(math.Round(g * 255)),
		B: uint8(math.Round(b * 255)),
		A: 255,
	}
	if len(args) == 4 {
		alpha, err := parseAlpha(args[3])
		if err != nil {
			return RGBA{}, err
		}
		c.A = alpha
	}
	return c, nil
}

// parseChannel parses either a plain number in [0, scale] or a percentage,
// returning a value in [0, scale].
func parseChannel(s string, scale float64) (float64, error) {
	if p, ok := strings.CutSuffix(s, "%"); ok {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: channel %q", ErrInvalidColor, s)
		}
		return clamp(f/100, 0, 1) * scale, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: channel %q", ErrInvalidColor, s)
	}
	return clamp(f, 0, scale), nil
}

func parseAlpha(s string) (uint8, error) {
	f, err := parseChannel(s, 1)
	if err != nil {
		return 0, err
	}
	return uint8(math.Round(f * 255)), nil
}

func hslToRGB(h, s, l float64) (float64, float64, float64) {
	if s == 0 {
		return l, l, l
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
