package mcp

import "github.com/mark3labs/mcp-go/mcp"

func resolveStylesTool() mcp.Tool {
	return mcp.NewTool("resolve_styles",
		mcp.WithDescription("Resolve a design tree into layer-tagged CSS declarations and mode blocks. "+
			"Returns per-node declarations (structural-utility, token-reference, component-rule), "+
			"the base and conditional mode blocks for referenced tokens, and diagnostics."),
		mcp.WithString("design",
			mcp.Required(),
			mcp.Description("Design document JSON with a root node"),
		),
		mcp.WithArray("node_ids",
			mcp.Description("Only return these nodes. Mode blocks and diagnostics still cover the whole document."),
			mcp.WithStringItems(),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func classifyModesTool() mcp.Tool {
	return mcp.NewTool("classify_modes",
		mcp.WithDescription("Classify a list of mode names as a theme or breakpoint collection, "+
			"pick the default mode and list the conditional wrapper of every other mode in emission order."),
		mcp.WithArray("modes",
			mcp.Required(),
			mcp.Description("Mode names in declaration order, e.g. [\"Mobile\", \"Tablet\", \"Desktop\"]"),
			mcp.WithStringItems(),
		),
		mcp.WithString("collection",
			mcp.Description("Collection name used in diagnostics"),
		),
		mcp.WithString("default",
			mcp.Description("Explicit default mode, overriding the heuristic"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func lookupTokenTool() mcp.Tool {
	return mcp.NewTool("lookup_token",
		mcp.WithDescription("Find the design token for a literal value. With a property, "+
			"returns the full placement decision for that declaration instead."),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Literal CSS value, e.g. \"#3b82f6\" or \"16px\""),
		),
		mcp.WithString("property",
			mcp.Description("CSS property the value is used for, e.g. \"background-color\""),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func listTokensTool() mcp.Tool {
	return mcp.NewTool("list_tokens",
		mcp.WithDescription("List loaded design tokens with their resolved values and custom properties."),
		mcp.WithString("category",
			mcp.Description("Filter by category"),
			mcp.Enum("color", "spacing", "radius", "typography", "shadow", "other"),
		),
		mcp.WithString("collection",
			mcp.Description("Filter by mode collection name"),
		),
		mcp.WithString("origin",
			mcp.Description("Filter by origin"),
			mcp.Enum("local", "external"),
		),
		mcp.WithString("prefix",
			mcp.Description("Filter by token name prefix, e.g. \"color.\""),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
