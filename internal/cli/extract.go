package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/example/intentspec/internal/generator"
	"github.com/example/intentspec/internal/render"
	"github.com/example/intentspec/internal/validator"
)

// ExtractConfig holds configuration for single-file extraction.
type ExtractConfig struct {
	File       string
	OutputPath string
	Format     string
	Mode       string
}

func newExtractCommand(a *app) *cobra.Command {
	var config ExtractConfig

	cmd := &cobra.Command{
		Use:     "extract-natspec [file]",
		Aliases: []string{"extract"},
		Short:   "Extract the intent spec of one Solidity file",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.File == "" && len(args) > 0 {
				config.File = args[0]
			}
			if !cmd.Flags().Changed("mode") {
				config.Mode = a.cfg.Extract.Mode
			}
			return a.extract(cmd.OutOrStdout(), &config)
		},
	}

	cmd.Flags().StringVarP(&config.File, "file", "f", "", "Solidity source file")
	cmd.Flags().StringVarP(&config.OutputPath, "output", "o", "-", "Path to output file or '-' for stdout")
	cmd.Flags().StringVar(&config.Format, "format", "json", "Output format: json, yaml, markdown or html")
	cmd.Flags().StringVar(&config.Mode, "mode", "wrap", "Tag value mode: wrap or line")

	return cmd
}

func (a *app) extract(stdout io.Writer, config *ExtractConfig) error {
	if config.File == "" {
		return errors.New("a source file is required (use -f or pass it as an argument)")
	}

	format, err := render.ParseFormat(config.Format)
	if err != nil {
		return err
	}

	gen := generator.New(generator.Options{Mode: generator.ParseModeFromString(config.Mode)})
	ex, err := gen.GenerateFile(config.File)
	if err != nil {
		if reason, ok := generator.ReasonOf(err); ok {
			a.log.Error("extraction failed", "file", config.File, "reason", reason)
		}
		return err
	}

	for _, w := range ex.Warnings {
		a.log.Warn(w.Message, "file", config.File, "line", w.Line)
	}

	if err := validator.Document(ex.Spec); err != nil {
		return errors.Errorf("spec validation failed: %w", err)
	}

	return writeOutput(stdout, ex.Spec, format, config.OutputPath)
}

func writeOutput(stdout io.Writer, spec *generator.IntentSpec, format render.Format, path string) error {
	if path == "-" || path == "" {
		return render.Write(stdout, spec, format)
	}

	outDir := filepath.Dir(path)
	if fi, err := os.Stat(outDir); err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("output directory %s does not exist", outDir)
		}
		return errors.WithStack(err)
	} else if !fi.IsDir() {
		return errors.Errorf("output path %s is not a directory", outDir)
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() { _ = f.Close() }()
	return render.Write(f, spec, format)
}
