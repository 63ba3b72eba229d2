package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/stylespec/pkg/mcplog"
)

// loggingMiddleware records every tool call as one JSONL entry. Handlers
// report failures as error results, so IsError is logged alongside Go errors.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)

			entry := mcplog.Entry{
				Ts:            start.UTC().Format(time.RFC3339),
				Session:       s.session,
				Tool:          req.Params.Name,
				Params:        mcplog.SanitizeParams(req.GetArguments()),
				DurationMs:    time.Since(start).Milliseconds(),
				ResponseBytes: mcplog.ResponseBytes(result),
				IsError:       err != nil || (result != nil && result.IsError),
			}
			if err != nil {
				msg := err.Error()
				entry.Error = &msg
			} else if result != nil && result.IsError {
				if msg := firstText(result); msg != "" {
					entry.Error = &msg
				}
			}
			if werr := s.callLog.Write(entry); werr != nil {
				s.logger.Warn("failed to write call log", "tool", entry.Tool, "error", werr)
			}
			return result, err
		}
	}
}

func firstText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
