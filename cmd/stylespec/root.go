package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gnana997/stylespec/pkg/config"
	"github.com/gnana997/stylespec/pkg/resolve"
	"github.com/gnana997/stylespec/pkg/tokens"
	"github.com/gnana997/stylespec/pkg/tokensource"
	"github.com/gnana997/stylespec/pkg/util"
)

const version = "0.1.0-dev"

// app carries global flags and the state PersistentPreRunE builds from them.
type app struct {
	configPath string
	tokens     []string
	external   []string
	verbose    bool
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
	runID  string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "stylespec",
		Short: "Resolve design trees into layered, token-aware CSS",
		Long: `stylespec turns design documents into CSS declarations split into
structural utilities, token references and component rules, and turns token
mode collections (themes, breakpoints) into base and conditional blocks.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default "+config.ProjectConfigPath+" if present)")
	pf.StringArrayVar(&a.tokens, "tokens", nil, "local token file (repeatable, disables discovery)")
	pf.StringArrayVar(&a.external, "external-tokens", nil, "external token file referenced with a fallback (repeatable)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: json, text or pretty")

	root.AddCommand(
		a.resolveCmd(),
		a.modesCmd(),
		a.tokensCmd(),
		a.serveCmd(),
		a.setupCmd(),
		a.watchCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(a.configPath)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		src := cfg.Source
		if src == "" {
			src = "defaults"
		}
		return fmt.Errorf("invalid config (%s): %w", src, errors.Join(errs...))
	}

	lc := cfg.LoggerConfig()
	if a.verbose {
		lc.Level = util.LevelDebug
	}
	if a.logFormat != "" {
		lc.Format = util.ParseLogFormat(a.logFormat)
	}
	lc.Output = cmd.ErrOrStderr()

	a.cfg = cfg
	a.runID = uuid.NewString()
	a.logger = util.NewLogger(lc).With("run", a.runID)
	a.logger.Debug("config loaded", "source", cfg.Source, "command", cmd.Name())
	return nil
}

// sources returns the token sources for the working directory.
func (a *app) sources() (tokensource.Sources, error) {
	wd, err := os.Getwd()
	if err != nil {
		return tokensource.Sources{}, fmt.Errorf("failed to get working directory: %w", err)
	}
	return tokensource.SourcesFromConfig(a.cfg, wd, a.tokens, a.external), nil
}

// table loads the token table. Failed sources are logged and the partial
// table is kept.
func (a *app) table(loader *tokensource.Loader) (*tokens.Table, error) {
	src, err := a.sources()
	if err != nil {
		return nil, err
	}
	table, _, err := loader.BuildTable(a.cfg, src)
	if table == nil {
		return nil, err
	}
	if err != nil {
		a.logger.Warn("some token sources failed to load", "error", err)
	}
	return table, nil
}

// engine builds an engine over the configured token sources. The caller
// closes the returned loader.
func (a *app) engine() (*resolve.Engine, *tokensource.Loader, error) {
	loader := tokensource.NewLoader(nil, a.logger)
	table, err := a.table(loader)
	if err != nil {
		_ = loader.Close()
		return nil, nil, err
	}
	return resolve.NewEngine(table, resolve.OptionsFromConfig(a.cfg), a.logger), loader, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "stylespec %s\n", version)
			return err
		},
	}
}
