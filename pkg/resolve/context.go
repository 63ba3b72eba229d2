package resolve

import (
	"strings"

	"github.com/gnana997/stylespec/pkg/design"
)

// Context is the traversal state handed to each node. It is a value: every
// With method returns a modified copy, and resolveNode returns the context
// its caller should continue with, so siblings observe what earlier
// siblings changed without any shared mutable state.
type Context struct {
	depth        int
	path         []string
	parentLayout *design.Layout
	headingUsed  bool
}

// Depth is the node depth; the root is 0.
func (c Context) Depth() int { return c.depth }

// Path is the slash-joined chain of node IDs from the root.
func (c Context) Path() string { return strings.Join(c.path, "/") }

// ParentLayout is the parent's layout, nil at the root and under non-containers.
func (c Context) ParentLayout() *design.Layout { return c.parentLayout }

// HeadingUsed reports whether a top-level heading was already emitted.
func (c Context) HeadingUsed() bool { return c.headingUsed }

// Child returns the context for child, a direct child of parent.
func (c Context) Child(parent, child *design.Node) Context {
	next := c.Enter(child)
	next.depth = c.depth + 1
	next.parentLayout = parent.Layout
	return next
}

// Enter returns the context with n appended to the path. Used for the root.
func (c Context) Enter(n *design.Node) Context {
	next := c
	next.path = append(append(make([]string, 0, len(c.path)+1), c.path...), n.ID)
	return next
}

// WithHeadingUsed returns the context with the heading flag set.
func (c Context) WithHeadingUsed() Context {
	next := c
	next.headingUsed = true
	return next
}

// merge carries flags that must flow back up and across to later siblings.
func (c Context) merge(from Context) Context {
	c.headingUsed = c.headingUsed || from.headingUsed
	return c
}
