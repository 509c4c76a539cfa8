package color

import "math"

// RelativeLuminance returns the WCAG relative luminance of c in [0, 1].
// Alpha is ignored.
func RelativeLuminance(c RGBA) float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

// linearize applies the sRGB transfer function with the 0.03928 knee used
// by WCAG 2.x.
func linearize(v uint8) float64 {
	c := float64(v) / 255
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// Ratio returns the WCAG contrast ratio between two parsed colors.
// The result is symmetric and lies in [1, 21].
func Ratio(a, b RGBA) float64 {
	la := RelativeLuminance(a)
	lb := RelativeLuminance(b)
	lighter, darker := math.Max(la, lb), math.Min(la, lb)
	return clamp((lighter+0.05)/(darker+0.05), MinContrast, MaxContrast)
}

// Contrast returns the WCAG contrast ratio between two CSS color values.
//
// Design decision: An unparsable value on either side fails open and yields
// MaxContrast. A color we cannot read is never reported as a violation, so
// unusual but valid CSS (custom properties, currentColor, gradients) does not
// produce false positives.
func Contrast(a, b string) float64 {
	ca, err := Parse(a)
	if err != nil {
		return MaxContrast
	}
	cb, err := Parse(b)
	if err != nil {
		return MaxContrast
	}
	return Ratio(ca, cb)
}

// RoundRatio rounds a contrast ratio to two decimals for display.
func RoundRatio(r float64) float64 {
	return math.Round(r*100) / 100
}
