package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/example/intentspec/internal/validator"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check intent spec documents against the output schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0

			for _, path := range args {
				r, err := validator.ValidateFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "✗ %v\n", err)
					a.log.Debug("validation failed", "file", path, "error", err)
					continue
				}
				fmt.Fprintf(out, "✓ %s: %s (%d functions, %d selectors, %d events, %d invariants)\n",
					r.Path, r.Contract, r.Functions, r.Selectors, r.Events, r.Invariants)
			}

			if failed > 0 {
				return errors.Errorf("%d of %d documents invalid", failed, len(args))
			}
			return nil
		},
	}
}
