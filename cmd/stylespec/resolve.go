package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnana997/stylespec/pkg/design"
	"github.com/gnana997/stylespec/pkg/resolve"
)

func (a *app) resolveCmd() *cobra.Command {
	var (
		outDir string
		jobs   int
	)
	cmd := &cobra.Command{
		Use:   "resolve <design.json...>",
		Short: "Resolve design documents to layered declarations",
		Long: `Resolve one or more design documents against the loaded tokens.

With a single document the result is printed as JSON. With several, a JSON
array is printed in argument order. --out writes one <name>.styles.json file
per document instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := make([]*design.Document, len(args))
			for i, p := range args {
				doc, err := design.LoadFromFile(p)
				if err != nil {
					return err
				}
				docs[i] = doc
			}

			engine, loader, err := a.engine()
			if err != nil {
				return err
			}
			defer loader.Close()

			results, err := engine.ResolveAllWithLimit(cmd.Context(), docs, jobs)
			if err != nil {
				return err
			}
			for i, res := range results {
				a.logger.Info("document resolved",
					"file", docs[i].Source,
					"nodes", len(res.Nodes),
					"mode_blocks", len(res.Modes),
					"diagnostics", len(res.Diagnostics))
			}

			if outDir == "" {
				if len(results) == 1 {
					return writeJSON(cmd.OutOrStdout(), results[0])
				}
				return writeJSON(cmd.OutOrStdout(), results)
			}
			return writeResults(cmd.OutOrStdout(), outDir, docs, results)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write one JSON file per document into this directory")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "documents resolved in parallel (0 = one per CPU)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputName maps a design file to its result file:
// "card.design.json" -> "card.design.styles.json".
func outputName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".styles.json"
}

func writeResult(dir, source string, res *resolve.Result) (string, error) {
	path := filepath.Join(dir, outputName(source))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeJSON(f, res); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, f.Close()
}

// writeResultDir is writeResult that creates dir first.
func writeResultDir(dir, source string, res *resolve.Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return writeResult(dir, source, res)
}

func writeJSONLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func writeResults(w io.Writer, dir string, docs []*design.Document, results []*resolve.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	warnings := 0
	for i, res := range results {
		path, err := writeResult(dir, docs[i].Source, res)
		if err != nil {
			return err
		}
		printFile(w, path)
		warnings += len(res.Diagnostics)
	}
	printSuccess(w, "resolved %d document(s)", len(results))
	if warnings > 0 {
		printWarning(w, "%d diagnostic(s), see the diagnostics field of each result", warnings)
	}
	return nil
}
