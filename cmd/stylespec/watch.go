package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/gnana997/stylespec/pkg/resolve"
	"github.com/gnana997/stylespec/pkg/tokensource"
	"github.com/gnana997/stylespec/pkg/watch"
)

type watchEvent struct {
	Run         string   `json:"run"`
	Op          watch.Op `json:"op"`
	Path        string   `json:"path"`
	Output      string   `json:"output,omitempty"`
	Nodes       int      `json:"nodes,omitempty"`
	Diagnostics int      `json:"diagnostics,omitempty"`
	DurationMs  int64    `json:"duration_ms"`
	Error       string   `json:"error,omitempty"`
}

func (a *app) watchCmd() *cobra.Command {
	var (
		outDir  string
		asJSON  bool
		initial bool
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-resolve design documents as they change",
		Long: `Watch a directory for design documents (*.json files that are not token
files) and resolve each one after it is written. Changes to token files in the
directory reload the token table and re-resolve every known document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, loader, err := a.engine()
			if err != nil {
				return err
			}
			defer loader.Close()

			opts := resolve.OptionsFromConfig(a.cfg)
			reload := func(_ context.Context, changed string) (*resolve.Engine, error) {
				loader.Evict(changed)
				table, err := a.table(loader)
				if err != nil {
					return nil, err
				}
				return resolve.NewEngine(table, opts, a.logger), nil
			}

			sink := a.watchSink(cmd.OutOrStdout(), outDir, asJSON)
			w, err := watch.New(engine, sink, watch.Options{
				Debounce:      a.cfg.Debounce(),
				Exclude:       a.cfg.Watch.Exclude,
				TokenPatterns: tokensource.DefaultPatterns,
				Reload:        reload,
				Initial:       initial,
				Logger:        a.logger,
			})
			if err != nil {
				return err
			}
			if err := w.Start(args[0]); err != nil {
				_ = w.Stop()
				return err
			}
			if !asJSON {
				printInfo(cmd.OutOrStdout(), "watching %s (ctrl-c to stop)", args[0])
			}

			<-cmd.Context().Done()
			return w.Stop()
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write <name>.styles.json files into this directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON line per event")
	cmd.Flags().BoolVar(&initial, "initial", true, "resolve existing documents at start")
	return cmd
}

// watchSink reports events and writes results.
func (a *app) watchSink(w io.Writer, outDir string, asJSON bool) watch.Sink {
	return func(e watch.Event) {
		ev := watchEvent{Run: e.Run, Op: e.Op, Path: e.Path, DurationMs: e.Duration.Milliseconds()}
		if e.Err != nil {
			ev.Error = e.Err.Error()
		}
		if e.Result != nil {
			ev.Nodes = len(e.Result.Nodes)
			ev.Diagnostics = len(e.Result.Diagnostics)
			if outDir != "" {
				path, err := writeResultDir(outDir, e.Path, e.Result)
				if err != nil {
					a.logger.Error("failed to write result", "file", e.Path, "error", err)
					ev.Error = err.Error()
				}
				ev.Output = path
			}
		}

		if asJSON {
			if err := writeJSONLine(w, ev); err != nil {
				a.logger.Error("failed to write event", "error", err)
			}
			return
		}
		switch e.Op {
		case watch.OpResolved:
			printSuccess(w, "%s: %d nodes, %d diagnostics (%dms)", e.Path, ev.Nodes, ev.Diagnostics, ev.DurationMs)
			if ev.Output != "" {
				printFile(w, ev.Output)
			}
		case watch.OpTokensReloaded:
			printInfo(w, "tokens reloaded from %s", e.Path)
			if ev.Error != "" {
				printWarning(w, "%s", ev.Error)
			}
		case watch.OpRemoved:
			printInfo(w, "%s removed", e.Path)
		case watch.OpFailed:
			printError(w, "%s: %s", e.Path, ev.Error)
		}
	}
}
