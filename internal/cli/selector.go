package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/intentspec/internal/generator"
)

func newSelectorCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "selector <name> [params]",
		Short: "Print the canonical signature and 4-byte selector of a function",
		Example: `  intentspec selector transfer "address to, uint256 amount"
  intentspec selector totalSupply`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params string
			if len(args) == 2 {
				params = args[1]
			}

			sig, err := generator.CanonicalSignature(args[0], params)
			if err != nil {
				return err
			}
			sel, err := generator.ComputeSelector(args[0], params)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", sel.Hex(), sig)
			return nil
		},
	}
}
