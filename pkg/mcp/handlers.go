package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/stylespec/pkg/design"
	"github.com/gnana997/stylespec/pkg/diag"
	"github.com/gnana997/stylespec/pkg/resolve"
	"github.com/gnana997/stylespec/pkg/tokens"
)

// jsonResult marshals v as the text content of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleResolveStyles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("design")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := design.LoadFromBytes([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.engine.Resolve(ctx, doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve %q: %v", doc.Name, err)), nil
	}

	if ids := req.GetStringSlice("node_ids", nil); len(ids) > 0 {
		nodes := make([]resolve.NodeStyles, 0, len(ids))
		var missing []string
		for _, id := range ids {
			if ns, ok := res.Node(id); ok {
				nodes = append(nodes, ns)
			} else {
				missing = append(missing, id)
			}
		}
		if len(nodes) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("no nodes found for ids: %v", missing)), nil
		}
		res.Nodes = nodes
	}
	return jsonResult(res)
}

type classifyModesResult struct {
	Collection  tokens.CollectionInfo `json:"collection"`
	Conditions  []resolve.Condition   `json:"conditions"`
	Diagnostics []diag.Diagnostic     `json:"diagnostics"`
}

func (s *Server) handleClassifyModes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modes, err := req.RequireStringSlice("modes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name := req.GetString("collection", "modes")

	c, diags, err := tokens.NewCollection(name, modes, req.GetString("default", ""), s.rules)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if diags == nil {
		diags = []diag.Diagnostic{}
	}
	conds := resolve.Conditions(c, s.attr)
	if conds == nil {
		conds = []resolve.Condition{}
	}
	return jsonResult(classifyModesResult{
		Collection:  c.Info(),
		Conditions:  conds,
		Diagnostics: diags,
	})
}

type lookupResult struct {
	Found       bool                 `json:"found"`
	Reference   *tokens.Reference    `json:"reference,omitempty"`
	Token       *tokens.Token        `json:"token,omitempty"`
	Declaration *resolve.Declaration `json:"declaration,omitempty"`
	Refs        []string             `json:"refs,omitempty"`
	Diagnostics []diag.Diagnostic    `json:"diagnostics,omitempty"`
}

func (s *Server) handleLookupToken(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if prop := req.GetString("property", ""); prop != "" {
		pl := s.engine.Classifier().Classify(resolve.Pair{Property: prop, Value: value})
		out := lookupResult{
			Found:       len(pl.Refs) > 0,
			Declaration: &pl.Declaration,
			Refs:        pl.Refs,
			Diagnostics: pl.Diagnostics,
		}
		if pl.Declaration.Token != "" {
			if ref, ok := s.engine.Table().Reference(pl.Declaration.Token); ok {
				out.Reference = &ref
			}
		}
		return jsonResult(out)
	}

	table := s.engine.Table()
	tok, ok := table.Match(value)
	if !ok {
		return jsonResult(lookupResult{Found: false})
	}
	ref, _ := table.Reference(tok.Name)
	return jsonResult(lookupResult{Found: true, Reference: &ref, Token: tok})
}

type tokenEntry struct {
	tokens.Token
	Resolved       string `json:"resolved"`
	CustomProperty string `json:"custom_property"`
}

func (s *Server) handleListTokens(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table := s.engine.Table()
	toks := table.Tokens(tokens.Filter{
		Category:   tokens.Category(req.GetString("category", "")),
		Collection: req.GetString("collection", ""),
		Origin:     tokens.Origin(req.GetString("origin", "")),
		Prefix:     req.GetString("prefix", ""),
	})

	out := make([]tokenEntry, len(toks))
	for i, t := range toks {
		resolved, _ := table.Resolve(t.Name)
		out[i] = tokenEntry{Token: t, Resolved: resolved, CustomProperty: t.CustomProperty()}
	}
	return jsonResult(out)
}
