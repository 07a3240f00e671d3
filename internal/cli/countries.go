package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visaposter/pkg/poster"
)

// countriesCommand lists the selectable countries and their flag assets.
func (c *CLI) countriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List supported destination countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, cc := range poster.Countries() {
				pair, _ := poster.FlagsFor(cc)
				printKeyValue(cc.String(), fmt.Sprintf("%s | %s", pair.Left, pair.Right))
			}
			return nil
		},
	}
}

// completeCountries completes --country values.
func completeCountries(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, cc := range poster.Countries() {
		if strings.HasPrefix(strings.ToLower(cc.String()), strings.ToLower(toComplete)) {
			out = append(out, cc.String())
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
