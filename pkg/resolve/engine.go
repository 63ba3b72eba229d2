package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gosimple/slug"

	"github.com/gnana997/stylespec/pkg/config"
	"github.com/gnana997/stylespec/pkg/design"
	"github.com/gnana997/stylespec/pkg/diag"
	"github.com/gnana997/stylespec/pkg/tokens"
)

// Options tunes an Engine.
type Options struct {
	Placement          ClassifierOptions
	ThemeAttribute     string
	HeadingMinFontSize float64
}

// DefaultOptions matches the embedded config defaults.
func DefaultOptions() Options {
	return Options{
		Placement:          ClassifierOptions{TokenBackedUtilities: true},
		ThemeAttribute:     DefaultThemeAttribute,
		HeadingMinFontSize: 24,
	}
}

// OptionsFromConfig reads engine options out of a loaded config.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return DefaultOptions()
	}
	return Options{
		Placement: ClassifierOptions{
			TokenBackedUtilities: cfg.Placement.TokenBackedUtilities,
			StructuralProperties: cfg.Placement.StructuralProperties,
			VisualProperties:     cfg.Placement.VisualProperties,
		},
		ThemeAttribute:     cfg.Modes.ThemeAttribute,
		HeadingMinFontSize: cfg.Semantics.HeadingMinFontSize,
	}
}

// Engine resolves design trees against one token table. An Engine is
// immutable; Resolve may be called from several goroutines, but parallel
// runs should go through ResolveAll so each gets its own table snapshot.
type Engine struct {
	table      *tokens.Table
	classifier *Classifier
	opts       Options
	logger     *slog.Logger
}

// NewEngine creates an engine. A nil table resolves without tokens and a
// nil logger uses slog.Default().
func NewEngine(table *tokens.Table, opts Options, logger *slog.Logger) *Engine {
	if table == nil {
		table, _ = tokens.NewBuilder(nil).WithLogger(discardLogger()).Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ThemeAttribute == "" {
		opts.ThemeAttribute = DefaultThemeAttribute
	}
	if opts.HeadingMinFontSize <= 0 {
		opts.HeadingMinFontSize = DefaultOptions().HeadingMinFontSize
	}
	return &Engine{
		table:      table,
		classifier: NewClassifier(table, opts.Placement),
		opts:       opts,
		logger:     logger,
	}
}

// Table returns the engine's token table.
func (e *Engine) Table() *tokens.Table { return e.table }

// Classifier returns the engine's placement classifier.
func (e *Engine) Classifier() *Classifier { return e.classifier }

// withTable returns an engine reading from another table.
func (e *Engine) withTable(t *tokens.Table) *Engine {
	cp := *e
	cp.table = t
	cp.classifier = e.classifier.WithTable(t)
	return &cp
}

// NodeStyles is the resolved output for one design node.
type NodeStyles struct {
	NodeID       string        `json:"node_id"`
	Name         string        `json:"name"`
	Selector     string        `json:"selector"`
	Element      string        `json:"element"`
	Path         string        `json:"path"`
	Depth        int           `json:"depth"`
	Axes         *Axes         `json:"axes,omitempty"`
	Declarations []Declaration `json:"declarations"`
	Runs         []RunStyles   `json:"runs,omitempty"`
}

// RunStyles holds the declarations for one styled text range.
type RunStyles struct {
	Start        int           `json:"start"`
	End          int           `json:"end"`
	Declarations []Declaration `json:"declarations"`
}

// Layer returns the declarations of ns in layer l, in emission order.
func (ns NodeStyles) Layer(l Layer) []Declaration {
	var out []Declaration
	for _, d := range ns.Declarations {
		if d.Layer == l {
			out = append(out, d)
		}
	}
	return out
}

// Get returns the first declaration for property.
func (ns NodeStyles) Get(property string) (Declaration, bool) {
	for _, d := range ns.Declarations {
		if d.Property == property {
			return d, true
		}
	}
	return Declaration{}, false
}

// Result is a resolved design document.
type Result struct {
	Document    string            `json:"document"`
	Nodes       []NodeStyles      `json:"nodes"`
	Modes       []ModeBlock       `json:"modes"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

// Node returns the styles for a node ID.
func (r *Result) Node(id string) (NodeStyles, bool) {
	for _, ns := range r.Nodes {
		if ns.NodeID == id {
			return ns, true
		}
	}
	return NodeStyles{}, false
}

// pass accumulates output for one Resolve call. It is owned by a single
// goroutine and never outlives the call.
type pass struct {
	e     *Engine
	nodes []NodeStyles
	refs  []string
	diags []diag.Diagnostic
}

// Resolve walks doc and returns its layer-tagged declarations. Only context
// cancellation and a missing root are errors; everything the tree itself
// gets wrong becomes a diagnostic.
func (e *Engine) Resolve(ctx context.Context, doc *design.Document) (*Result, error) {
	if doc == nil || doc.Root == nil {
		return nil, errors.New("document has no root node")
	}

	p := &pass{e: e}
	if _, err := p.node(ctx, Context{}.Enter(doc.Root), doc.Root, nil); err != nil {
		return nil, err
	}

	modes, mdiags := Merge(e.table, p.refs, e.opts.ThemeAttribute)
	for _, d := range mdiags {
		p.report(d)
	}

	res := &Result{
		Document:    doc.Name,
		Nodes:       p.nodes,
		Modes:       modes,
		Diagnostics: p.diags,
	}
	if res.Diagnostics == nil {
		res.Diagnostics = []diag.Diagnostic{}
	}

	e.logger.Debug("document resolved",
		"document", doc.Name,
		"nodes", len(res.Nodes),
		"mode_blocks", len(res.Modes),
		"diagnostics", len(res.Diagnostics))
	return res, nil
}

func (p *pass) report(d diag.Diagnostic) {
	p.diags = append(p.diags, d)
	diag.Log(p.e.logger, d)
}

// node resolves n and its subtree in pre-order and returns the context the
// next sibling continues with.
func (p *pass) node(ctx context.Context, c Context, n, parent *design.Node) (Context, error) {
	if err := ctx.Err(); err != nil {
		return c, fmt.Errorf("resolve %s: %w", c.Path(), err)
	}

	ns := NodeStyles{
		NodeID:       n.ID,
		Name:         n.Name,
		Selector:     selector(n),
		Path:         c.Path(),
		Depth:        c.Depth(),
		Declarations: []Declaration{},
	}
	ns.Element, c = p.element(c, n)

	absolute := parent != nil && c.ParentLayout() != nil && c.ParentLayout().Axis == design.AxisNone

	var pairs []Pair
	pairs = append(pairs, layoutPairs(n, absolute)...)

	if parent != nil {
		sp, axes := p.placement(c, n, parent)
		pairs = append(pairs, sp...)
		ns.Axes = axes
	}

	pairs = append(pairs, visualPairs(n)...)
	pairs = append(pairs, textPairs(n)...)
	ns.Declarations = append(ns.Declarations, p.classify(n.ID, pairs)...)

	if n.Text != nil {
		for _, run := range n.Text.Runs {
			rp := runPairs(n.Text, run)
			if len(rp) == 0 {
				continue
			}
			ns.Runs = append(ns.Runs, RunStyles{Start: run.Start, End: run.End, Declarations: p.classify(n.ID, rp)})
		}
	}

	p.nodes = append(p.nodes, ns)

	for _, child := range n.Children {
		if child == nil {
			continue
		}
		next, err := p.node(ctx, c.Child(n, child), child, n)
		if err != nil {
			return c, err
		}
		c = c.merge(next)
	}
	return c, nil
}

func (p *pass) classify(nodeID string, pairs []Pair) []Declaration {
	out := make([]Declaration, 0, len(pairs))
	for _, pair := range pairs {
		pl := p.e.classifier.Classify(pair)
		out = append(out, pl.Declaration)
		p.refs = append(p.refs, pl.Refs...)
		for _, d := range pl.Diagnostics {
			p.report(d.WithNode(nodeID))
		}
	}
	return out
}

// placement returns the sizing or positioning pairs of a child. Children of
// axis-less containers are positioned absolutely; sizing under a parent with
// no layout at all is reported and skipped for this node only.
func (p *pass) placement(c Context, n, parent *design.Node) ([]Pair, *Axes) {
	layout := c.ParentLayout()
	if layout != nil && layout.Axis == design.AxisNone {
		return PositionDeclarations(n), nil
	}
	if n.Sizing == nil {
		return nil, nil
	}

	var axis design.Axis
	if layout != nil {
		axis = layout.Axis
	}
	axes, err := ResolveAxes(axis, *n.Sizing)
	if err != nil {
		p.report(diag.New(diag.KindInvalidAxisContext, diag.SeverityError, parent.ID,
			"sizing of %q ignored: %v", n.ID, err).WithNode(n.ID))
		return nil, nil
	}

	var out []Pair
	for _, dim := range axes.Each() {
		out = append(out, SizingDeclarations(dim, *n.Sizing)...)
	}
	return out, &axes
}

// element picks the HTML element hint. The first text at or above the
// heading size becomes h1, later ones h2.
func (p *pass) element(c Context, n *design.Node) (string, Context) {
	switch n.Kind {
	case design.KindImage:
		return "img", c
	case design.KindVector:
		return "svg", c
	case design.KindText:
		if n.Text == nil || n.Text.FontSize < p.e.opts.HeadingMinFontSize {
			return "p", c
		}
		if c.HeadingUsed() {
			return "h2", c
		}
		return "h1", c.WithHeadingUsed()
	}
	return "div", c
}

func selector(n *design.Node) string {
	name := slug.Make(n.Name)
	if name == "" {
		name = string(n.Kind)
	}
	id := slug.Make(n.ID)
	if id == "" {
		return name
	}
	return name + "-" + id
}

var justifyContent = map[design.PrimaryAlign]string{
	design.PrimaryCenter:       "center",
	design.PrimaryEnd:          "flex-end",
	design.PrimarySpaceBetween: "space-between",
}

var alignItems = map[design.CounterAlign]string{
	design.CounterStart:    "flex-start",
	design.CounterCenter:   "center",
	design.CounterEnd:      "flex-end",
	design.CounterBaseline: "baseline",
	design.CounterStretch:  "stretch",
}

// layoutPairs returns the container declarations of n. An absolutely
// positioned container is already a containing block and skips
// position: relative.
func layoutPairs(n *design.Node, absolute bool) []Pair {
	l := n.Layout
	if l == nil || !n.IsContainer() {
		return nil
	}

	var out []Pair
	if l.Axis == design.AxisNone {
		if !absolute {
			out = append(out, Pair{Property: "position", Value: "relative"})
		}
	} else {
		out = append(out,
			Pair{Property: "display", Value: "flex"},
			Pair{Property: "flex-direction", Value: string(l.Axis)},
		)
		if l.Wrap {
			out = append(out, Pair{Property: "flex-wrap", Value: "wrap"})
		}
		if jc, ok := justifyContent[l.PrimaryAlign]; ok {
			out = append(out, Pair{Property: "justify-content", Value: jc})
		}
		ai, ok := alignItems[l.CounterAlign]
		if !ok {
			ai = "flex-start"
		}
		out = append(out, Pair{Property: "align-items", Value: ai})
		if l.Wrap {
			ac := ai
			if ac == "baseline" {
				ac = "flex-start"
			}
			out = append(out, Pair{Property: "align-content", Value: ac})
		}
		out = append(out, gapPairs(l)...)
	}

	out = append(out, paddingPairs(l.Padding)...)
	if l.ClipContent {
		out = append(out, Pair{Property: "overflow", Value: "hidden"})
	}
	return out
}

// gapPairs emits gap, or row-gap and column-gap when a wrapping container
// has a separate counter gap. space-between distributes space itself.
func gapPairs(l *design.Layout) []Pair {
	if l.PrimaryAlign == design.PrimarySpaceBetween && l.CounterGap == nil {
		return nil
	}
	hasGap := l.Gap > 0 || l.GapToken != ""

	if l.Wrap && l.CounterGap != nil {
		primaryProp, counterProp := "column-gap", "row-gap"
		if l.Axis == design.AxisColumn {
			primaryProp, counterProp = "row-gap", "column-gap"
		}
		var out []Pair
		if hasGap && l.PrimaryAlign != design.PrimarySpaceBetween {
			out = append(out, Pair{Property: primaryProp, Value: px(l.Gap), Token: l.GapToken})
		}
		return append(out, Pair{Property: counterProp, Value: px(*l.CounterGap)})
	}

	if !hasGap {
		return nil
	}
	return []Pair{{Property: "gap", Value: px(l.Gap), Token: l.GapToken}}
}

// paddingPairs uses the shorthand when every side is equal and longhands
// otherwise, so each side can match a spacing token on its own.
func paddingPairs(p design.Padding) []Pair {
	if p.IsZero() {
		return nil
	}
	if p.Top == p.Right && p.Right == p.Bottom && p.Bottom == p.Left {
		return []Pair{{Property: "padding", Value: px(p.Top)}}
	}
	var out []Pair
	for _, side := range []struct {
		prop string
		v    float64
	}{
		{"padding-top", p.Top},
		{"padding-right", p.Right},
		{"padding-bottom", p.Bottom},
		{"padding-left", p.Left},
	} {
		if side.v != 0 {
			out = append(out, Pair{Property: side.prop, Value: px(side.v)})
		}
	}
	return out
}

// visualPairs returns fills, strokes and effects. Vectors use SVG paint
// properties; text fills become the text color unless the text sets one.
func visualPairs(n *design.Node) []Pair {
	v := n.Visual
	if v == nil {
		return nil
	}

	var out []Pair
	hasFill := v.Fill != "" || v.FillToken != ""
	switch {
	case !hasFill:
	case n.Kind == design.KindVector:
		out = append(out, Pair{Property: "fill", Value: string(v.Fill), Token: v.FillToken})
	case n.Kind == design.KindText:
		if n.Text == nil || (n.Text.Color == "" && n.Text.ColorToken == "") {
			out = append(out, Pair{Property: "color", Value: string(v.Fill), Token: v.FillToken})
		}
	default:
		out = append(out, Pair{Property: "background-color", Value: string(v.Fill), Token: v.FillToken})
	}

	if v.Stroke != "" || v.StrokeToken != "" {
		width := v.StrokeWidth
		if width <= 0 {
			width = 1
		}
		if n.Kind == design.KindVector {
			out = append(out,
				Pair{Property: "stroke", Value: string(v.Stroke), Token: v.StrokeToken},
				Pair{Property: "stroke-width", Value: num(width)},
			)
		} else {
			out = append(out, Pair{
				Property: "border",
				Value:    strings.TrimSpace(px(width) + " solid " + string(v.Stroke)),
				Token:    v.StrokeToken,
			})
		}
	}

	if v.CornerRadius > 0 || v.RadiusToken != "" {
		out = append(out, Pair{Property: "border-radius", Value: px(v.CornerRadius), Token: v.RadiusToken})
	}

	if len(v.Shadows) > 0 {
		layers := make([]string, len(v.Shadows))
		for i, s := range v.Shadows {
			parts := make([]string, 0, 6)
			if s.Inset {
				parts = append(parts, "inset")
			}
			parts = append(parts, px(s.X), px(s.Y), px(s.Blur))
			if s.Spread != 0 {
				parts = append(parts, px(s.Spread))
			}
			parts = append(parts, string(s.Color))
			layers[i] = strings.Join(parts, " ")
		}
		out = append(out, Pair{Property: "box-shadow", Value: strings.Join(layers, ", ")})
	}

	if v.Opacity != nil && *v.Opacity < 1 {
		out = append(out, Pair{Property: "opacity", Value: num(*v.Opacity)})
	}

	switch strings.ToLower(v.BlendMode) {
	case "", "normal", "pass-through", "pass_through":
	default:
		out = append(out, Pair{Property: "mix-blend-mode", Value: strings.ToLower(strings.ReplaceAll(v.BlendMode, "_", "-"))})
	}
	return out
}

// textPairs returns the typography of a text node.
func textPairs(n *design.Node) []Pair {
	t := n.Text
	if t == nil {
		return nil
	}

	var out []Pair
	if t.FontFamily != "" {
		out = append(out, Pair{Property: "font-family", Value: t.FontFamily})
	}
	if t.FontSize > 0 {
		out = append(out, Pair{Property: "font-size", Value: px(t.FontSize)})
	}
	if t.FontWeight > 0 {
		out = append(out, Pair{Property: "font-weight", Value: fmt.Sprint(t.FontWeight)})
	}
	if t.Italic {
		out = append(out, Pair{Property: "font-style", Value: "italic"})
	}
	if t.LineHeight != nil {
		out = append(out, Pair{Property: "line-height", Value: px(*t.LineHeight)})
	}
	if t.LetterSpacing != nil {
		out = append(out, Pair{Property: "letter-spacing", Value: px(*t.LetterSpacing)})
	}
	if t.Color != "" || t.ColorToken != "" {
		out = append(out, Pair{Property: "color", Value: string(t.Color), Token: t.ColorToken})
	}
	return out
}

// runPairs returns the properties of run that differ from the node's own.
func runPairs(t *design.Text, run design.TextRun) []Pair {
	var out []Pair
	if run.FontFamily != "" && run.FontFamily != t.FontFamily {
		out = append(out, Pair{Property: "font-family", Value: run.FontFamily})
	}
	if run.FontSize > 0 && run.FontSize != t.FontSize {
		out = append(out, Pair{Property: "font-size", Value: px(run.FontSize)})
	}
	if run.FontWeight > 0 && run.FontWeight != t.FontWeight {
		out = append(out, Pair{Property: "font-weight", Value: fmt.Sprint(run.FontWeight)})
	}
	if run.Italic && !t.Italic {
		out = append(out, Pair{Property: "font-style", Value: "italic"})
	}
	if (run.Color != "" && run.Color != t.Color) || (run.ColorToken != "" && run.ColorToken != t.ColorToken) {
		out = append(out, Pair{Property: "color", Value: string(run.Color), Token: run.ColorToken})
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
