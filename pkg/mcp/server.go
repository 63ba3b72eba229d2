// Package mcp exposes the style resolution engine as MCP tools over stdio.
package mcp

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/stylespec/pkg/mcplog"
	"github.com/gnana997/stylespec/pkg/resolve"
	"github.com/gnana997/stylespec/pkg/tokens"
)

const serverVersion = "0.1.0-dev"

// Options configures a Server. Zero values are usable.
type Options struct {
	// Rules classifies modes passed to classify_modes. Nil uses the
	// built-in table.
	Rules *tokens.ModeRules

	// ThemeAttribute keys manual theme selectors in classify_modes output.
	ThemeAttribute string

	// CallLog records every tool call. Nil disables call logging.
	CallLog *mcplog.Logger

	Logger *slog.Logger
}

// Server implements the MCP server for stylespec.
type Server struct {
	mcpServer *server.MCPServer
	engine    *resolve.Engine
	rules     *tokens.ModeRules
	attr      string
	callLog   *mcplog.Logger
	logger    *slog.Logger
	session   string
}

// NewServer creates an MCP server resolving against engine.
func NewServer(engine *resolve.Engine, opts Options) *Server {
	if opts.Rules == nil {
		opts.Rules = tokens.DefaultModeRules()
	}
	if opts.ThemeAttribute == "" {
		opts.ThemeAttribute = resolve.DefaultThemeAttribute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		engine:  engine,
		rules:   opts.Rules,
		attr:    opts.ThemeAttribute,
		callLog: opts.CallLog,
		logger:  opts.Logger,
		session: uuid.NewString(),
	}

	serverOpts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if s.callLog != nil {
		serverOpts = append(serverOpts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer("stylespec", serverVersion, serverOpts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: resolveStylesTool(), Handler: s.handleResolveStyles},
		server.ServerTool{Tool: classifyModesTool(), Handler: s.handleClassifyModes},
		server.ServerTool{Tool: lookupTokenTool(), Handler: s.handleLookupToken},
		server.ServerTool{Tool: listTokensTool(), Handler: s.handleListTokens},
	)

	s.logger.Info("mcp server ready",
		"session", s.session,
		"tokens", engine.Table().Len(),
		"call_log", s.callLog != nil)
	return s
}

// Session identifies this server instance in call logs.
func (s *Server) Session() string { return s.session }

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
