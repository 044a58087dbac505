// Package compiler extracts intent specs for every Solidity file under a
// directory tree.
package compiler

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/example/intentspec/internal/generator"
	"github.com/example/intentspec/internal/render"
)

// DefaultOutDir is created under Root when OutDir is empty.
const DefaultOutDir = "intentspec"

type Options struct {
	Root      string
	OutDir    string
	Extension string
	Exclude   []string
	Workers   int
	Format    render.Format
	Mode      generator.ParseMode
	Logger    *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.Root == "" {
		o.Root = "."
	}
	if o.OutDir == "" {
		o.OutDir = filepath.Join(o.Root, DefaultOutDir)
	}
	if o.Extension == "" {
		o.Extension = ".sol"
	}
	if o.Exclude == nil {
		o.Exclude = []string{".git", "node_modules"}
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Format == "" {
		o.Format = render.FormatJSON
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Skip records a source file that produced no document.
type Skip struct {
	Path   string
	Reason string
}

type Summary struct {
	Files   int
	Written int
	Skipped int
	// Bytes is the total size of the sources read.
	Bytes int64
	// Outputs lists the distinct files written, sorted.
	Outputs []string
	Skips   []Skip
	// Collisions counts documents that overwrote an earlier one with the
	// same contract name.
	Collisions int
}

type result struct {
	path     string
	bytes    int64
	contract string
	output   string
	warnings []generator.Warning
	skip     string
}

// Compile walks opts.Root, extracts every matching file and writes one
// document per contract into opts.OutDir. Files that fail extraction are
// skipped. An error is returned only for walk or write failures, or when
// ctx is cancelled; the summary is populated either way.
func Compile(ctx context.Context, opts Options) (*Summary, error) {
	opts.applyDefaults()
	log := opts.Logger

	files, err := FindSources(opts.Root, opts.Extension, opts.Exclude, log)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, errors.Errorf("create output dir: %w", err)
	}

	gen := generator.New(generator.Options{Mode: opts.Mode})
	summary := &Summary{Files: len(files)}
	results := make(chan result)
	done := make(chan struct{})

	go func() {
		defer close(done)
		collect(log, summary, results)
	}()

	var g errgroup.Group
	g.SetLimit(opts.Workers)

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		path := path // per-iteration copy; go directive is below 1.22
		g.Go(func() error {
			r, err := compileFile(gen, opts, path)
			if err != nil {
				return err
			}
			results <- r
			return nil
		})
	}

	werr := g.Wait()
	close(results)
	<-done

	slices.Sort(summary.Outputs)
	summary.Outputs = slices.Compact(summary.Outputs)

	log.Info("compile finished",
		"files", summary.Files,
		"written", summary.Written,
		"skipped", summary.Skipped,
		"scanned", humanize.Bytes(uint64(summary.Bytes)),
		"out", opts.OutDir)

	if werr != nil {
		return summary, werr
	}
	if err := ctx.Err(); err != nil {
		return summary, errors.Errorf("compile interrupted: %w", err)
	}
	return summary, nil
}

// collect owns summary; it runs until results is closed.
func collect(log *slog.Logger, summary *Summary, results <-chan result) {
	seen := make(map[string]string)

	for r := range results {
		summary.Bytes += r.bytes

		if r.skip != "" {
			summary.Skipped++
			summary.Skips = append(summary.Skips, Skip{Path: r.path, Reason: r.skip})
			log.Info("skipped", "file", r.path, "reason", r.skip)
			continue
		}

		summary.Written++
		summary.Outputs = append(summary.Outputs, r.output)
		for _, w := range r.warnings {
			log.Warn(w.Message, "file", r.path, "line", w.Line)
		}

		if prev, ok := seen[r.contract]; ok {
			summary.Collisions++
			log.Warn("contract name already written, last write wins",
				"contract", r.contract, "file", r.path, "previous", prev)
		}
		seen[r.contract] = r.path

		log.Info("written", "file", r.path, "contract", r.contract, "output", r.output)
	}
}

func compileFile(gen *generator.Generator, opts Options, path string) (result, error) {
	r := result{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		r.skip = string(generator.ReasonUnreadableSource)
		return r, nil
	}
	r.bytes = int64(len(data))

	ex, err := gen.Generate(string(data))
	if err != nil {
		reason, ok := generator.ReasonOf(err)
		if !ok {
			return r, errors.Errorf("%s: %w", path, err)
		}
		r.skip = string(reason)
		return r, nil
	}

	out, err := render.Marshal(ex.Spec, opts.Format)
	if err != nil {
		return r, errors.Errorf("%s: %w", path, err)
	}

	r.contract = ex.Spec.Contract.Name
	r.warnings = ex.Warnings
	r.output = filepath.Join(opts.OutDir, r.contract+opts.Format.Ext())

	if err := writeAtomic(r.output, out); err != nil {
		return r, err
	}
	return r, nil
}

// writeAtomic writes through a temp file in the target directory and renames
// it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// FindSources returns the files under root ending in ext, sorted. Directories
// whose base name is listed in exclude are not entered. Subdirectories that
// cannot be read are logged and skipped; only a failure on root itself is
// returned.
func FindSources(root, ext string, exclude []string, log *slog.Logger) ([]string, error) {
	if log == nil {
		log = slog.Default()
	}
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return skipUnreadable(log, root, path, d, err)
		}
		if d.IsDir() {
			if path != root && slices.Contains(exclude, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walk %s: %w", root, err)
	}

	slices.Sort(files)
	return files, nil
}

func skipUnreadable(log *slog.Logger, root, path string, d fs.DirEntry, err error) error {
	if path == root || d == nil {
		return err
	}
	log.Warn("skipping unreadable path", "path", path, "error", err)
	if d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}
