package design

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a CSS color literal. In JSON it accepts either a string
// ("#1a1a1a", "rgb(...)", "transparent") or an extractor RGBA object with
// channels in [0,1]: {"r":0.1,"g":0.1,"b":0.1,"a":1}.
type Color string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Color(NormalizeColor(s))
		return nil
	}

	var rgba struct {
		R float64  `json:"r"`
		G float64  `json:"g"`
		B float64  `json:"b"`
		A *float64 `json:"a"`
	}
	if err := json.Unmarshal(data, &rgba); err != nil {
		return fmt.Errorf("color must be a string or an {r,g,b,a} object: %w", err)
	}
	alpha := 1.0
	if rgba.A != nil {
		alpha = *rgba.A
	}
	*c = Color(FromRGBA(rgba.R, rgba.G, rgba.B, alpha))
	return nil
}

// FromRGBA converts float channels to a lowercase hex literal. Alpha below 1
// is appended as a fourth byte.
func FromRGBA(r, g, b, a float64) string {
	col := colorful.Color{R: clamp01(r), G: clamp01(g), B: clamp01(b)}
	hex := col.Hex()
	a = clamp01(a)
	if a < 1 {
		hex += fmt.Sprintf("%02x", int(math.Round(a*255)))
	}
	return hex
}

// NormalizeColor lowercases hex literals and expands #rgb shorthand so that
// equal colors compare equal. Anything that is not a hex literal is returned
// trimmed but otherwise untouched.
func NormalizeColor(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return s
	}
	lower := strings.ToLower(s)
	if len(lower) == 4 {
		if col, err := colorful.Hex(lower); err == nil {
			return col.Hex()
		}
	}
	return lower
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
