package design

// Kind is the type of a design node.
type Kind string

const (
	KindContainer Kind = "container"
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindVector    Kind = "vector"
)

// Valid reports whether k is one of the known node kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindContainer, KindText, KindImage, KindVector:
		return true
	}
	return false
}

// Axis is the auto-layout direction of a container.
type Axis string

const (
	AxisRow    Axis = "row"
	AxisColumn Axis = "column"
	AxisNone   Axis = "none"
)

// Valid reports whether a is a known axis mode.
func (a Axis) Valid() bool {
	switch a {
	case AxisRow, AxisColumn, AxisNone:
		return true
	}
	return false
}

// PrimaryAlign distributes children along the primary axis.
type PrimaryAlign string

const (
	PrimaryStart        PrimaryAlign = "start"
	PrimaryCenter       PrimaryAlign = "center"
	PrimaryEnd          PrimaryAlign = "end"
	PrimarySpaceBetween PrimaryAlign = "space-between"
)

// CounterAlign positions children along the counter axis.
type CounterAlign string

const (
	CounterStart    CounterAlign = "start"
	CounterCenter   CounterAlign = "center"
	CounterEnd      CounterAlign = "end"
	CounterBaseline CounterAlign = "baseline"
	CounterStretch  CounterAlign = "stretch"
)

// SizingMode is how a child sizes itself along one dimension.
type SizingMode string

const (
	SizingFixed SizingMode = "fixed"
	SizingFill  SizingMode = "fill"
	SizingHug   SizingMode = "hug"
)

// Valid reports whether m is a known sizing mode. The empty mode is valid
// and behaves like hug.
func (m SizingMode) Valid() bool {
	switch m {
	case SizingFixed, SizingFill, SizingHug, "":
		return true
	}
	return false
}

// Dimension names one of the two physical dimensions of a node.
type Dimension int

const (
	Horizontal Dimension = iota
	Vertical
)

// String returns "horizontal" or "vertical".
func (d Dimension) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// MarshalText implements encoding.TextMarshaler.
func (d Dimension) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// SizeProperty returns the CSS property controlling this dimension.
func (d Dimension) SizeProperty() string {
	if d == Vertical {
		return "height"
	}
	return "width"
}

// Node is one element of a design tree.
type Node struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Kind     Kind      `json:"kind"`
	Layout   *Layout   `json:"layout,omitempty"`
	Sizing   *Sizing   `json:"sizing,omitempty"`
	Visual   *Visual   `json:"visual,omitempty"`
	Text     *Text     `json:"text,omitempty"`
	Position *Position `json:"position,omitempty"`
	Children []*Node   `json:"children,omitempty"`
}

// IsContainer reports whether the node can carry a layout and children.
func (n *Node) IsContainer() bool {
	return n.Kind == KindContainer
}

// Layout describes a container's auto-layout.
type Layout struct {
	Axis         Axis         `json:"axis"`
	PrimaryAlign PrimaryAlign `json:"primary_align,omitempty"`
	CounterAlign CounterAlign `json:"counter_align,omitempty"`
	Gap          float64      `json:"gap,omitempty"`
	GapToken     string       `json:"gap_token,omitempty"`
	CounterGap   *float64     `json:"counter_gap,omitempty"` // row gap when wrapping
	Padding      Padding      `json:"padding"`
	Wrap         bool         `json:"wrap,omitempty"`
	ClipContent  bool         `json:"clip_content,omitempty"`
}

// Padding holds per-side container padding in px.
type Padding struct {
	Top    float64 `json:"top,omitempty"`
	Right  float64 `json:"right,omitempty"`
	Bottom float64 `json:"bottom,omitempty"`
	Left   float64 `json:"left,omitempty"`
}

// IsZero reports whether every side is zero.
func (p Padding) IsZero() bool {
	return p.Top == 0 && p.Right == 0 && p.Bottom == 0 && p.Left == 0
}

// Sizing describes how a child sizes itself inside its parent container.
type Sizing struct {
	Horizontal SizingMode `json:"horizontal"`
	Vertical   SizingMode `json:"vertical"`
	Width      float64    `json:"width,omitempty"`
	Height     float64    `json:"height,omitempty"`
	MinWidth   *float64   `json:"min_width,omitempty"`
	MaxWidth   *float64   `json:"max_width,omitempty"`
	MinHeight  *float64   `json:"min_height,omitempty"`
	MaxHeight  *float64   `json:"max_height,omitempty"`
}

// Mode returns the sizing mode for d. An unset mode is reported as hug.
func (s Sizing) Mode(d Dimension) SizingMode {
	m := s.Horizontal
	if d == Vertical {
		m = s.Vertical
	}
	if m == "" {
		return SizingHug
	}
	return m
}

// Size returns the fixed size for d.
func (s Sizing) Size(d Dimension) float64 {
	if d == Vertical {
		return s.Height
	}
	return s.Width
}

// Min returns the minimum constraint for d, or nil.
func (s Sizing) Min(d Dimension) *float64 {
	if d == Vertical {
		return s.MinHeight
	}
	return s.MinWidth
}

// Max returns the maximum constraint for d, or nil.
func (s Sizing) Max(d Dimension) *float64 {
	if d == Vertical {
		return s.MaxHeight
	}
	return s.MaxWidth
}

// Visual holds fills, strokes and effects.
type Visual struct {
	Fill         Color    `json:"fill,omitempty"`
	FillToken    string   `json:"fill_token,omitempty"`
	Stroke       Color    `json:"stroke,omitempty"`
	StrokeToken  string   `json:"stroke_token,omitempty"`
	StrokeWidth  float64  `json:"stroke_width,omitempty"`
	CornerRadius float64  `json:"corner_radius,omitempty"`
	RadiusToken  string   `json:"radius_token,omitempty"`
	Shadows      []Shadow `json:"shadows,omitempty"`
	Opacity      *float64 `json:"opacity,omitempty"`
	BlendMode    string   `json:"blend_mode,omitempty"`
}

// Shadow is a drop or inner shadow effect.
type Shadow struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Blur   float64 `json:"blur"`
	Spread float64 `json:"spread,omitempty"`
	Color  Color   `json:"color"`
	Inset  bool    `json:"inset,omitempty"`
}

// Text holds typography for text nodes.
type Text struct {
	Content       string    `json:"content,omitempty"`
	FontFamily    string    `json:"font_family,omitempty"`
	FontSize      float64   `json:"font_size,omitempty"`
	FontWeight    int       `json:"font_weight,omitempty"`
	Italic        bool      `json:"italic,omitempty"`
	LineHeight    *float64  `json:"line_height,omitempty"`
	LetterSpacing *float64  `json:"letter_spacing,omitempty"`
	Color         Color     `json:"color,omitempty"`
	ColorToken    string    `json:"color_token,omitempty"`
	Runs          []TextRun `json:"runs,omitempty"`
}

// TextRun is a styled range of a text node. Zero fields inherit from the node.
type TextRun struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	FontFamily string  `json:"font_family,omitempty"`
	FontSize   float64 `json:"font_size,omitempty"`
	FontWeight int     `json:"font_weight,omitempty"`
	Italic     bool    `json:"italic,omitempty"`
	Color      Color   `json:"color,omitempty"`
	ColorToken string  `json:"color_token,omitempty"`
}

// Position places a child of a container without auto-layout.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
