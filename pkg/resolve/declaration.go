// Package resolve turns design trees into layer-tagged style declarations.
//
// A pass has four parts: the axis resolver maps a child's horizontal and
// vertical sizing onto its parent's primary and counter axes; the placement
// classifier decides which output layer each property lands in and rewrites
// token-matched values; the mode merge turns token collections into base and
// conditional blocks; and the Engine walks the tree tying them together.
package resolve

import (
	"math"
	"strconv"
)

// Layer is the output bucket a declaration belongs to.
type Layer string

const (
	// LayerStructural holds layout mechanics: flex, sizing, positioning.
	LayerStructural Layer = "structural-utility"
	// LayerToken holds declarations whose whole value is a token reference.
	LayerToken Layer = "token-reference"
	// LayerComponent holds component-scoped visual rules.
	LayerComponent Layer = "component-rule"
)

// Declaration is one resolved property/value pair.
type Declaration struct {
	Property string `json:"property"`
	Value    string `json:"value"`
	Layer    Layer  `json:"layer"`

	// Token names the token the value refers to, if any.
	Token string `json:"token,omitempty"`

	// Fallback is the literal carried by references to external tokens.
	Fallback string `json:"fallback,omitempty"`

	// Literal is the original value when Value was rewritten.
	Literal string `json:"literal,omitempty"`
}

// Pair is an unclassified property/value with an optional explicit token
// binding from the design node.
type Pair struct {
	Property string
	Value    string
	Token    string
}

func px(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
