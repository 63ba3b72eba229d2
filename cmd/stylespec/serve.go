package main

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/gnana997/stylespec/pkg/mcp"
	"github.com/gnana997/stylespec/pkg/mcplog"
)

func (a *app) serveCmd() *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, loader, err := a.engine()
			if err != nil {
				return err
			}
			defer loader.Close()

			if logPath == "" {
				logPath = a.cfg.MCP.LogPath
			}
			callLog, err := mcplog.Open(logPath)
			if err != nil {
				return err
			}
			defer callLog.Close()

			rules, err := a.cfg.ModeRules()
			if err != nil {
				return err
			}
			srv := mcpserver.NewServer(engine, mcpserver.Options{
				Rules:          rules,
				ThemeAttribute: a.cfg.Modes.ThemeAttribute,
				CallLog:        callLog,
				Logger:         a.logger,
			})
			return srv.ServeStdio()
		},
	}
	cmd.Flags().StringVar(&logPath, "call-log", "", "append one JSON line per tool call to this file (overrides mcp.log_path)")
	return cmd
}
