package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnana997/stylespec/pkg/diag"
	"github.com/gnana997/stylespec/pkg/resolve"
	"github.com/gnana997/stylespec/pkg/tokens"
)

type modesOutput struct {
	Collection  tokens.CollectionInfo `json:"collection"`
	Conditions  []resolve.Condition   `json:"conditions"`
	Diagnostics []diag.Diagnostic     `json:"diagnostics"`
}

func (a *app) modesCmd() *cobra.Command {
	var (
		name       string
		defaultFor string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "modes <mode...>",
		Short: "Classify mode names and show their CSS conditions",
		Example: `  stylespec modes Mobile Tablet Desktop
  stylespec modes Light Dark "High Contrast" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := a.cfg.ModeRules()
			if err != nil {
				return err
			}
			c, diags, err := tokens.NewCollection(name, args, defaultFor, rules)
			if err != nil {
				return err
			}
			conds := resolve.Conditions(c, a.cfg.Modes.ThemeAttribute)

			w := cmd.OutOrStdout()
			if asJSON {
				if conds == nil {
					conds = []resolve.Condition{}
				}
				if diags == nil {
					diags = []diag.Diagnostic{}
				}
				return writeJSON(w, modesOutput{Collection: c.Info(), Conditions: conds, Diagnostics: diags})
			}

			fmt.Fprintln(w, styleTitle.Render(c.Name())+styleDim.Render(
				fmt.Sprintf(" · %s · default %s", c.Classification(), c.Default())))

			byMode := make(map[string][]string, len(conds))
			for _, cond := range conds {
				byMode[cond.Mode] = append(byMode[cond.Mode], cond.Query)
			}
			modes := c.Modes()
			rows := make([][]string, len(modes))
			for i, m := range modes {
				threshold := ""
				if c.Classification() == tokens.ClassBreakpoint {
					threshold = strconv.Itoa(m.Threshold) + "px"
				}
				condition := strings.Join(byMode[m.Name], ", then ")
				if c.IsDefault(i) {
					condition = "base (no condition)"
				}
				rows[i] = []string{m.Name, threshold, condition}
			}
			fmt.Fprintln(w, renderTable([]string{"Mode", "Min width", "Condition"}, rows, func(row int) bool {
				return c.IsDefault(row)
			}))

			for _, d := range diags {
				printWarning(w, "%s", d.Message)
			}
			if c.Classification() == tokens.ClassUnknown {
				printInfo(w, "unknown collections emit only their default values")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "collection", "modes", "collection name")
	cmd.Flags().StringVar(&defaultFor, "default", "", "explicit default mode")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
