package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Scheme is the four-color text palette used on top of a background.
type Scheme struct {
	Name      string
	Primary   color.NRGBA
	Secondary color.NRGBA
	Accent    color.NRGBA
	Text      color.NRGBA
}

type schemeRule struct {
	keywords []string
	scheme   Scheme
}

var defaultScheme = Scheme{
	Name:      "default",
	Primary:   mustHex("#1a1a1a"),
	Secondary: mustHex("#4a4a4a"),
	Accent:    mustHex("#2563eb"),
	Text:      mustHex("#2d2d2d"),
}

// schemeRules are checked in order; the first keyword hit wins.
var schemeRules = []schemeRule{
	{[]string{"f7f3f0", "beige", "elegant-beige"}, Scheme{"beige", mustHex("#5d2e0a"), mustHex("#8b4513"), mustHex("#b8860b"), mustHex("#3d1a00")}},
	{[]string{"blue", "4f46e5", "gradient-blue", "ocean"}, Scheme{"blue", mustHex("#0f172a"), mustHex("#1e293b"), mustHex("#1d4ed8"), mustHex("#0c1426")}},
	{[]string{"green", "10b981", "gradient-green"}, Scheme{"green", mustHex("#052e16"), mustHex("#064e3b"), mustHex("#047857"), mustHex("#022c0e")}},
	{[]string{"sunset", "f59e0b", "gradient-sunset"}, Scheme{"sunset", mustHex("#7c2d12"), mustHex("#92400e"), mustHex("#ea580c"), mustHex("#5c1a08")}},
	{[]string{"purple", "8b5cf6", "gradient-purple"}, Scheme{"purple", mustHex("#3730a3"), mustHex("#4c1d95"), mustHex("#7c3aed"), mustHex("#312e81")}},
	{[]string{"f8f9fa", "ffffff", "faf9f7", "minimal", "cream"}, Scheme{"light", mustHex("#111827"), mustHex("#374151"), mustHex("#4f46e5"), mustHex("#0f0f0f")}},
}

// SchemeFor picks a high-contrast palette by substring match on the
// background's identifying string. No match, or no background, gives the
// neutral default.
func SchemeFor(identity string) Scheme {
	id := strings.ToLower(identity)
	if id == "" {
		return defaultScheme
	}
	for _, r := range schemeRules {
		for _, kw := range r.keywords {
			if strings.Contains(id, kw) {
				return r.scheme
			}
		}
	}
	return defaultScheme
}

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa".
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Hex formats c as "#rrggbb".
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func mustHex(s string) color.NRGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// withAlpha scales c's alpha by opacity in [0,1].
func withAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(float64(c.A)*opacity + 0.5)
	return c
}
