package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/intentspec/internal/compiler"
	"github.com/example/intentspec/internal/generator"
	"github.com/example/intentspec/internal/render"
)

func newCompileCommand(a *app) *cobra.Command {
	var (
		dir     string
		out     string
		workers int
		format  string
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Extract intent specs for every Solidity file under a directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := a.cfg.Compile
			if cmd.Flags().Changed("dir") {
				cc.Dir = dir
			}
			if cmd.Flags().Changed("out") {
				cc.Out = out
			}
			if cmd.Flags().Changed("workers") {
				cc.Workers = workers
			}
			if cmd.Flags().Changed("format") {
				cc.Format = format
			}

			f, err := render.ParseFormat(cc.Format)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := compiler.Compile(ctx, compiler.Options{
				Root:      cc.Dir,
				OutDir:    cc.Out,
				Extension: cc.Extension,
				Exclude:   cc.Exclude,
				Workers:   cc.Workers,
				Format:    f,
				Mode:      generator.ParseModeFromString(a.cfg.Extract.Mode),
				Logger:    a.log,
			})
			if summary != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "written: %d, skipped: %d\n", summary.Written, summary.Skipped)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Root directory to scan")
	cmd.Flags().StringVar(&out, "out", "", "Output directory (default <dir>/intentspec)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent files (default number of CPUs)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, yaml, markdown or html")

	return cmd
}
