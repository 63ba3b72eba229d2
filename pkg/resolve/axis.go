package resolve

import (
	"errors"
	"fmt"

	"github.com/gnana997/stylespec/pkg/design"
)

// ErrInvalidAxisContext is returned when sizing is resolved against a parent
// that has no row or column axis. Children of such parents are positioned
// with PositionDeclarations instead.
var ErrInvalidAxisContext = errors.New("sizing requires a parent with a row or column axis")

// Role is a dimension's relation to the parent's layout direction.
type Role string

const (
	RolePrimary Role = "primary"
	RoleCounter Role = "counter"
)

// ResolvedDimension is one child dimension mapped onto the parent's axes.
type ResolvedDimension struct {
	Dimension design.Dimension  `json:"dimension"`
	Role      Role              `json:"role"`
	Mode      design.SizingMode `json:"mode"`
}

// Axes holds both resolved dimensions of a child.
type Axes struct {
	Horizontal ResolvedDimension `json:"horizontal"`
	Vertical   ResolvedDimension `json:"vertical"`
}

// Each returns the dimensions in a fixed order: horizontal, then vertical.
func (a Axes) Each() [2]ResolvedDimension {
	return [2]ResolvedDimension{a.Horizontal, a.Vertical}
}

// ResolveAxes maps a child's sizing onto its parent's axis. A row parent
// makes horizontal primary; a column parent makes vertical primary.
func ResolveAxes(axis design.Axis, s design.Sizing) (Axes, error) {
	var hRole, vRole Role
	switch axis {
	case design.AxisRow:
		hRole, vRole = RolePrimary, RoleCounter
	case design.AxisColumn:
		hRole, vRole = RoleCounter, RolePrimary
	default:
		return Axes{}, fmt.Errorf("parent axis %q: %w", axis, ErrInvalidAxisContext)
	}

	return Axes{
		Horizontal: ResolvedDimension{Dimension: design.Horizontal, Role: hRole, Mode: s.Mode(design.Horizontal)},
		Vertical:   ResolvedDimension{Dimension: design.Vertical, Role: vRole, Mode: s.Mode(design.Vertical)},
	}, nil
}

// SizingDeclarations returns the structural pairs for one resolved
// dimension:
//
//	primary fill  -> flex-grow: 1, flex-basis: 0
//	primary fixed -> width|height, flex-shrink: 0
//	counter fill  -> align-self: stretch, or 100% when a max constraint exists
//	counter fixed -> width|height
//	hug           -> nothing, not even min/max constraints
//
// Min and max constraints follow for every non-hug mode.
func SizingDeclarations(dim ResolvedDimension, s design.Sizing) []Pair {
	if dim.Mode == design.SizingHug {
		return nil
	}

	size := dim.Dimension.SizeProperty()
	maxSize := s.Max(dim.Dimension)
	minSize := s.Min(dim.Dimension)

	var out []Pair
	switch {
	case dim.Role == RolePrimary && dim.Mode == design.SizingFill:
		// Grow from a zero basis so fill siblings share space equally
		// instead of in proportion to their content.
		out = append(out,
			Pair{Property: "flex-grow", Value: "1"},
			Pair{Property: "flex-basis", Value: "0"},
		)
	case dim.Role == RolePrimary && dim.Mode == design.SizingFixed:
		out = append(out,
			Pair{Property: size, Value: px(s.Size(dim.Dimension))},
			Pair{Property: "flex-shrink", Value: "0"},
		)
	case dim.Role == RoleCounter && dim.Mode == design.SizingFill:
		if maxSize != nil {
			out = append(out, Pair{Property: size, Value: "100%"})
		} else {
			out = append(out, Pair{Property: "align-self", Value: "stretch"})
		}
	case dim.Role == RoleCounter && dim.Mode == design.SizingFixed:
		out = append(out, Pair{Property: size, Value: px(s.Size(dim.Dimension))})
	}

	if minSize != nil {
		out = append(out, Pair{Property: "min-" + size, Value: px(*minSize)})
	}
	if maxSize != nil {
		out = append(out, Pair{Property: "max-" + size, Value: px(*maxSize)})
	}
	return out
}

// PositionDeclarations returns the pairs for a child of a container without
// an axis: absolute placement plus explicit size for fixed dimensions.
func PositionDeclarations(n *design.Node) []Pair {
	out := []Pair{{Property: "position", Value: "absolute"}}

	var x, y float64
	if n.Position != nil {
		x, y = n.Position.X, n.Position.Y
	}
	out = append(out,
		Pair{Property: "left", Value: px(x)},
		Pair{Property: "top", Value: px(y)},
	)

	if n.Sizing != nil {
		for _, d := range []design.Dimension{design.Horizontal, design.Vertical} {
			if n.Sizing.Mode(d) == design.SizingFixed {
				out = append(out, Pair{Property: d.SizeProperty(), Value: px(n.Sizing.Size(d))})
			}
		}
	}
	return out
}
