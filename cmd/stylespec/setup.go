package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// defaultServerName is the key the MCP server is registered under.
const defaultServerName = "stylespec"

type agentKind int

const (
	// agentCLI agents register servers through their own "mcp add" command.
	agentCLI agentKind = iota
	// agentFile agents read a JSON config file.
	agentFile
)

// agent describes how to find and configure one MCP client.
type agent struct {
	id     string
	name   string
	kind   agentKind
	binary string

	// markers are project directories whose presence means the agent is in
	// use. Agents without markers are found by their config directory.
	markers    []string
	configPath func() string
	serversKey string
	extra      map[string]string
}

// foundAgent is an agent detected on this machine.
type foundAgent struct {
	agent
	config     string
	configured bool
}

// Replaceable in tests.
var (
	lookPathFunc   = exec.LookPath
	statFunc       = os.Stat
	runCommandFunc = func(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		return cmd.Run()
	}
)

var agents = []agent{
	{id: "claude_code", name: "Claude Code", kind: agentCLI, binary: "claude"},
	{id: "openai_codex", name: "OpenAI Codex", kind: agentCLI, binary: "codex"},
	{
		id: "vscode", name: "VS Code", kind: agentFile,
		markers:    []string{".vscode"},
		configPath: func() string { return filepath.Join(".vscode", "mcp.json") },
		serversKey: "servers",
		extra:      map[string]string{"type": "stdio"},
	},
	{
		id: "cursor", name: "Cursor", kind: agentFile,
		markers:    []string{".cursor"},
		configPath: func() string { return filepath.Join(".cursor", "mcp.json") },
		serversKey: "mcpServers",
	},
	{
		id: "claude_desktop", name: "Claude Desktop", kind: agentFile,
		configPath: claudeDesktopConfigPath,
		serversKey: "mcpServers",
	},
}

func claudeDesktopConfigPath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	}
	return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
}

// detectAgents returns the agents present, in registry order.
func detectAgents(server string) []foundAgent {
	var found []foundAgent
	for _, ag := range agents {
		switch ag.kind {
		case agentCLI:
			if _, err := lookPathFunc(ag.binary); err != nil {
				continue
			}
			found = append(found, foundAgent{
				agent:      ag,
				configured: hasServer(".mcp.json", "mcpServers", server),
			})

		case agentFile:
			path, ok := locateConfig(ag)
			if !ok {
				continue
			}
			found = append(found, foundAgent{
				agent:      ag,
				config:     path,
				configured: hasServer(path, ag.serversKey, server),
			})
		}
	}
	return found
}

func locateConfig(ag agent) (string, bool) {
	for _, m := range ag.markers {
		if _, err := statFunc(m); err == nil {
			return ag.configPath(), true
		}
	}
	if len(ag.markers) > 0 {
		return "", false
	}
	path := ag.configPath()
	if _, err := statFunc(filepath.Dir(path)); err != nil {
		return "", false
	}
	return path, true
}

// hasServer reports whether the JSON file at path registers server under key.
func hasServer(path, key, server string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	servers, _ := doc[key].(map[string]any)
	_, ok := servers[server]
	return ok
}

// serverEntry is one MCP server registration.
type serverEntry struct {
	Command string
	Args    []string
	Extra   map[string]string
}

func (e serverEntry) toMap() map[string]any {
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		args[i] = a
	}
	m := map[string]any{"command": e.Command, "args": args}
	for k, v := range e.Extra {
		m[k] = v
	}
	return m
}

// serveEntry is the registration for "stylespec serve", forwarding the
// token and config flags the setup command itself was given.
func (a *app) serveEntry() serverEntry {
	args := []string{"serve"}
	if a.configPath != "" {
		args = append(args, "--config", a.configPath)
	}
	for _, t := range a.tokens {
		args = append(args, "--tokens", t)
	}
	for _, t := range a.external {
		args = append(args, "--external-tokens", t)
	}
	return serverEntry{Command: "stylespec", Args: args}
}

// mergeServer adds server to the JSON config in existing, keeping every
// other key. It returns nil when server is already registered.
func mergeServer(existing []byte, key, server string, entry serverEntry) ([]byte, error) {
	doc := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	servers, ok := doc[key].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[server]; exists {
		return nil, nil
	}
	servers[server] = entry.toMap()
	doc[key] = servers

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// writeServerConfig merges the entry into the config file at path.
func writeServerConfig(path, key, server string, entry serverEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	merged, err := mergeServer(existing, key, server, entry)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(path, merged, 0o644)
}

// cliArgs builds "<agent> mcp add [--scope s] <server> -- <command> <args>".
func cliArgs(scope, server string, entry serverEntry) []string {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, server, "--", entry.Command)
	return append(args, entry.Args...)
}

// prompter reads answers line by line from one buffered reader.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{r: bufio.NewReader(r), w: w}
}

// line returns the next trimmed answer and false at EOF.
func (p *prompter) line() (string, bool) {
	s, err := p.r.ReadString('\n')
	if err != nil && s == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// yesNo asks a Y/n question. Empty input and EOF mean yes.
func (p *prompter) yesNo(question string) bool {
	fmt.Fprintf(p.w, "%s [Y/n] ", question)
	answer, ok := p.line()
	if !ok {
		return true
	}
	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return true
	}
	return false
}

// scope asks where a CLI agent should register the server. It returns
// "project", "user" or "" to skip.
func (p *prompter) scope(agentName string) string {
	fmt.Fprintf(p.w, "\n%s: add the stylespec MCP server?\n", agentName)
	fmt.Fprintln(p.w, "  [1] Project scope (shared with the team)")
	fmt.Fprintln(p.w, "  [2] User scope (all projects)")
	fmt.Fprintln(p.w, "  [3] Skip")
	fmt.Fprint(p.w, "  > ")
	answer, ok := p.line()
	if !ok {
		return "project"
	}
	switch answer {
	case "", "1":
		return "project"
	case "2":
		return "user"
	}
	return ""
}

type setupOptions struct {
	auto   bool
	server string
	entry  serverEntry
}

func (a *app) setupCmd() *cobra.Command {
	opts := setupOptions{}
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the stylespec MCP server with installed AI agents",
		Long: `setup finds MCP clients on this machine (Claude Code, OpenAI Codex,
VS Code, Cursor, Claude Desktop) and registers "stylespec serve" with each.
--config, --tokens and --external-tokens given to setup are forwarded to the
registered serve command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.entry = a.serveEntry()
			return a.runSetup(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.auto, "auto", false, "configure every detected agent without prompting (project scope)")
	cmd.Flags().StringVar(&opts.server, "name", defaultServerName, "server name to register")
	return cmd
}

// runSetup detects agents and configures the ones not yet registered.
func (a *app) runSetup(ctx context.Context, r io.Reader, w io.Writer, opts setupOptions) error {
	if opts.server == "" {
		opts.server = defaultServerName
	}
	found := detectAgents(opts.server)
	if len(found) == 0 {
		printWarning(w, "No supported AI agents detected")
		return nil
	}

	fmt.Fprintln(w, styleTitle.Render("Detected AI agents"))
	for _, f := range found {
		if f.configured {
			fmt.Fprintf(w, "  • %s %s\n", f.name, styleDim.Render("(already configured)"))
		} else {
			fmt.Fprintf(w, "  • %s\n", f.name)
		}
	}
	fmt.Fprintln(w)

	p := newPrompter(r, w)
	if !opts.auto && !p.yesNo("Configure agents?") {
		return nil
	}

	var failed int
	for _, f := range found {
		if f.configured {
			printInfo(w, "%s already registers %q, skipping", f.name, opts.server)
			continue
		}
		if err := a.configureAgent(ctx, p, w, f, opts); err != nil {
			failed++
			printError(w, "%s: %v", f.name, err)
			a.logger.Warn("agent setup failed", "agent", f.id, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d agents could not be configured", failed, len(found))
	}
	return nil
}

func (a *app) configureAgent(ctx context.Context, p *prompter, w io.Writer, f foundAgent, opts setupOptions) error {
	switch f.kind {
	case agentCLI:
		scope := "project"
		if !opts.auto {
			if scope = p.scope(f.name); scope == "" {
				printInfo(w, "%s skipped", f.name)
				return nil
			}
		}
		args := cliArgs(scope, opts.server, opts.entry)
		a.logger.Debug("registering MCP server", "agent", f.id, "command", f.binary, "args", args)
		if err := runCommandFunc(ctx, w, w, f.binary, args...); err != nil {
			return err
		}
		printSuccess(w, "%s configured (scope: %s)", f.name, scope)

	case agentFile:
		if !opts.auto && !p.yesNo(fmt.Sprintf("\n%s: add to %s?", f.name, f.config)) {
			printInfo(w, "%s skipped", f.name)
			return nil
		}
		entry := opts.entry
		entry.Extra = f.extra
		if err := writeServerConfig(f.config, f.serversKey, opts.server, entry); err != nil {
			return err
		}
		printSuccess(w, "%s configured (%s)", f.name, f.config)
	}
	return nil
}
