package color

import (
	"errors"
	"math"
	"testing"
)

// TestParse tests the supported CSS color syntaxes.
func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected RGBA
	}{
		{"short hex", "#fff", RGBA{255, 255, 255, 255}},
		{"short hex with alpha", "#f008", RGBA{255, 0, 0, 0x88}},
		{"long hex", "#777777", RGBA{0x77, 0x77, 0x77, 255}},
		{"long hex uppercase", "#1A2B3C", RGBA{0x1a, 0x2b, 0x3c, 255}},
		{"long hex with alpha", "#11223300", RGBA{0x11, 0x22, 0x33, 0}},
		{"rgb", "rgb(10, 20, 30)", RGBA{10, 20, 30, 255}},
		{"rgb space syntax", "rgb(10 20 30 / 0.5)", RGBA{10, 20, 30, 128}},
		{"rgba", "rgba(0,0,0,0)", RGBA{0, 0, 0, 0}},
		{"rgb percent", "rgb(100%, 0%, 50%)", RGBA{255, 0, 128, 255}},
		{"hsl red", "hsl(0, 100%, 50%)", RGBA{255, 0, 0, 255}},
		{"hsl grey", "hsl(120deg, 0%, 50%)", RGBA{128, 128, 128, 255}},
		{"hsla blue", "hsla(240, 100%, 50%, 1)", RGBA{0, 0, 255, 255}},
		{"named", "navy", RGBA{0, 0, 128, 255}},
		{"named mixed case", "  White ", RGBA{255, 255, 255, 255}},
		{"important", "#000 !important", RGBA{0, 0, 0, 255}},
		{"transparent", "transparent", RGBA{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("Parse(%q) = %+v, expected %+v", tc.input, got, tc.expected)
			}
		})
	}
}

// TestParseInvalid tests that bad values return ErrInvalidColor.
func TestParseInvalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		"",
		"#",
		"#12",
		"#12345",
		"#ggg",
		"rgb(1,2)",
		"rgb(a,b,c)",
		"hsl(x, 1%, 1%)",
		"notacolor",
		"var(--fg)",
		"currentcolor",
	} {
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse(input); !errors.Is(err, ErrInvalidColor) {
				t.Errorf("Parse(%q) error = %v, expected ErrInvalidColor", input, err)
			}
		})
	}
}

// TestContrast tests known contrast ratios.
func TestContrast(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"black on white", "#000000", "#ffffff", 21},
		{"same color", "#336699", "#336699", 1},
		{"grey 777 on white", "#777777", "#ffffff", 4.48},
		{"grey 767676 on white", "#767676", "#ffffff", 4.54},
		{"named colors", "black", "white", 21},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := RoundRatio(Contrast(tc.a, tc.b))
			if math.Abs(got-tc.expected) > 0.01 {
				t.Errorf("Contrast(%q, %q) = %.2f, expected %.2f", tc.a, tc.b, got, tc.expected)
			}
		})
	}

	if Contrast("#777777", "#ffffff") >= 4.5 {
		t.Error("#777777 on white must fall below 4.5:1")
	}
}

// TestContrastProperties tests symmetry and bounds over a grid of colors.
func TestContrastProperties(t *testing.T) {
	t.Parallel()

	colors := []string{
		"#000", "#fff", "#777777", "#ff0000", "#00ff00", "#0000ff",
		"rgb(12, 200, 99)", "hsl(300, 40%, 30%)", "gold", "#123456",
	}

	for _, a := range colors {
		for _, b := range colors {
			ab := Contrast(a, b)
			ba := Contrast(b, a)
			if ab != ba {
				t.Errorf("Contrast(%q,%q)=%v != Contrast(%q,%q)=%v", a, b, ab, b, a, ba)
			}
			if ab < MinContrast || ab > MaxContrast {
				t.Errorf("Contrast(%q,%q)=%v out of [1,21]", a, b, ab)
			}
		}
	}
}

// TestContrastFailOpen tests that unparsable input yields the maximum ratio.
func TestContrastFailOpen(t *testing.T) {
	t.Parallel()

	testCases := []struct{ a, b string }{
		{"bogus", "#fff"},
		{"#fff", "bogus"},
		{"", ""},
		{"var(--x)", "#000"},
	}
	for _, tc := range testCases {
		if got := Contrast(tc.a, tc.b); got != MaxContrast {
			t.Errorf("Contrast(%q, %q) = %v, expected %v", tc.a, tc.b, got, MaxContrast)
		}
	}
}

// TestRelativeLuminance tests luminance endpoints.
func TestRelativeLuminance(t *testing.T) {
	t.Parallel()

	if l := RelativeLuminance(RGBA{0, 0, 0, 255}); l != 0 {
		t.Errorf("black luminance = %v", l)
	}
	if l := RelativeLuminance(RGBA{255, 255, 255, 255}); math.Abs(l-1) > 1e-9 {
		t.Errorf("white luminance = %v", l)
	}
	if got := (RGBA{0x12, 0xab, 0xef, 255}).Hex(); got != "#12abef" {
		t.Errorf("Hex() = %q", got)
	}
}
