// Command bowlcheck verifies bowl photos against their receipts from the
// command line and prints one JSON report per photo.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/schollz/progressbar/v2"

	"github.com/ironsheep/bowlcheck/internal/config"
	"github.com/ironsheep/bowlcheck/internal/imaging"
	"github.com/ironsheep/bowlcheck/internal/pipeline"
)

// Version information - set by ldflags during build
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fl := flag.NewFlagSet("bowlcheck", flag.ContinueOnError)
	fl.SetOutput(stderr)
	configPath := fl.String("config", config.DefaultPath, "configuration file (JSON or YAML)")
	outPath := fl.String("out", "", "write the reports here instead of stdout")
	concurrency := fl.Int("concurrency", 0, "photos processed at once (default from config)")
	cropsDir := fl.String("crops", "", "save receipt and bowl crops into this directory")
	quiet := fl.Bool("quiet", false, "no progress bar")
	version := fl.Bool("version", false, "print version and exit")
	fl.Usage = func() {
		fmt.Fprintln(stderr, "Usage: bowlcheck [flags] PHOTO|DIR...")
		fmt.Fprintln(stderr)
		fl.PrintDefaults()
	}
	if err := fl.Parse(args); err != nil {
		return 2
	}
	if *version {
		fmt.Fprintf(stdout, "bowlcheck %s\n", Version)
		return 0
	}
	if fl.NArg() == 0 {
		fl.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "bowlcheck: %v\n", err)
		return 1
	}
	log := config.NewLogger(stderr, cfg.LogLevel)

	paths, err := expand(fl.Args())
	if err != nil {
		fmt.Fprintf(stderr, "bowlcheck: %v\n", err)
		return 1
	}
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "bowlcheck: no photos found")
		return 1
	}

	p, err := pipeline.FromConfig(cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "bowlcheck: %v\n", err)
		return 1
	}

	n := *concurrency
	if n <= 0 {
		n = cfg.Batch.Concurrency
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress func(pipeline.Item)
	if !*quiet {
		bar := progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("verifying"),
		)
		defer func() {
			_ = bar.Finish()
			fmt.Fprintln(stderr)
		}()
		progress = func(pipeline.Item) { _ = bar.Add(1) }
	}

	items := p.ProcessBatch(ctx, paths, n, progress)

	failed := 0
	for _, it := range items {
		if !it.Success {
			failed++
		}
		if *cropsDir != "" && it.Report != nil {
			seg := it.Report.Segmentation
			if _, err := imaging.SaveCrops(*cropsDir, it.Path, seg.Bowl.Image, seg.Receipt.Image); err != nil {
				log.Warn("saving crops failed", "path", it.Path, "error", err)
			}
		}
	}

	if err := writeReports(items, *outPath, stdout); err != nil {
		fmt.Fprintf(stderr, "bowlcheck: %v\n", err)
		return 1
	}
	log.Info("done", "photos", len(items), "failed", failed)
	if failed > 0 {
		return 1
	}
	return 0
}

// expand turns the arguments into a sorted list of photos. Directories are
// walked recursively and only supported image files are kept from them;
// files named explicitly are passed through as-is.
func expand(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && imaging.IsSupported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

// createFile opens the report file. Replaced in tests.
var createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }

// writeReports encodes items to path, or to stdout when path is empty. A
// failure to flush and close the file is reported like a write failure.
func writeReports(items []pipeline.Item, path string, stdout io.Writer) (err error) {
	if path == "" {
		return encodeReports(stdout, items)
	}
	f, cerr := createFile(path)
	if cerr != nil {
		return fmt.Errorf("create %s: %w", path, cerr)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return encodeReports(f, items)
}

func encodeReports(w io.Writer, items []pipeline.Item) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
