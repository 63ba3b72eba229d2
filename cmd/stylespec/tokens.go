package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnana997/stylespec/pkg/tokens"
)

type tokenRow struct {
	tokens.Token
	Resolved       string `json:"resolved"`
	CustomProperty string `json:"custom_property"`
}

func (a *app) tokensCmd() *cobra.Command {
	var (
		f      tokens.Filter
		cat    string
		origin string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "List the loaded design tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, loader, err := a.engine()
			if err != nil {
				return err
			}
			defer loader.Close()

			f.Category = tokens.Category(cat)
			f.Origin = tokens.Origin(origin)
			table := engine.Table()
			toks := table.Tokens(f)

			out := make([]tokenRow, len(toks))
			for i, t := range toks {
				resolved, _ := table.Resolve(t.Name)
				out[i] = tokenRow{Token: t, Resolved: resolved, CustomProperty: t.CustomProperty()}
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, out)
			}
			if len(out) == 0 {
				printInfo(w, "no tokens loaded")
				return nil
			}

			rows := make([][]string, len(out))
			for i, r := range out {
				value := r.Value
				if r.Alias != "" {
					value = "{" + r.Alias + "}"
				}
				rows[i] = []string{r.CustomProperty, value, r.Resolved, string(r.Category), r.Collection, string(r.Origin)}
			}
			fmt.Fprintln(w, renderTable([]string{"Property", "Value", "Resolved", "Category", "Collection", "Origin"}, rows, nil))
			printSuccess(w, "%d of %d tokens", len(out), table.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&cat, "category", "", "filter by category (color, spacing, radius, typography, shadow, other)")
	cmd.Flags().StringVar(&f.Collection, "collection", "", "filter by mode collection")
	cmd.Flags().StringVar(&origin, "origin", "", "filter by origin (local, external)")
	cmd.Flags().StringVar(&f.Prefix, "prefix", "", "filter by name prefix")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
