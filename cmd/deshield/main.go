// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/deshield

// Command deshield lists and extracts InstallShield archives.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/woozymasta/deshield"
	"github.com/woozymasta/pathrules"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type config struct {
	archive      string
	outDir       string
	mode         string
	nameEncoding string
	rules        []pathrules.Rule
	maxSize      int64
	trailer      int
	includes     int
	list         bool
	jsonOut      bool
	rawNames     bool
	verbose      bool
}

// ruleFlag appends rules of one action to shared ordered rule set.
type ruleFlag struct {
	rules *[]pathrules.Rule
	count *int
	build func(patterns ...string) []pathrules.Rule
}

func (f ruleFlag) String() string {
	return ""
}

func (f ruleFlag) Set(value string) error {
	rules := f.build(value)
	if len(rules) == 0 {
		return fmt.Errorf("empty pattern %q", value)
	}

	*f.rules = append(*f.rules, rules...)
	if f.count != nil {
		*f.count++
	}

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes command with args and returns process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "deshield: %v\n", err)
		return exitUsage
	}

	logger := newLogger(stderr, cfg.verbose)
	if err := execute(ctx, cfg, stdout, logger); err != nil {
		logger.Error("failed", slog.String("archive", cfg.archive), slog.Any("error", err))
		return exitError
	}

	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("deshield", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "usage: deshield [flags] ARCHIVE\n\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.outDir, "o", ".", "output directory")
	fs.BoolVar(&cfg.list, "list", false, "list entries instead of extracting")
	fs.BoolVar(&cfg.jsonOut, "json", false, "print listing as JSON (with -list)")
	fs.Var(ruleFlag{rules: &cfg.rules, count: &cfg.includes, build: deshield.IncludeRules}, "include", "include entries matching pattern (repeatable)")
	fs.Var(ruleFlag{rules: &cfg.rules, build: deshield.ExcludeRules}, "exclude", "exclude entries matching pattern (repeatable)")
	fs.StringVar(&cfg.mode, "mode", string(deshield.ExtractFileModeAuto), "file mode: auto, overwrite_smart, truncate, create_only")
	fs.BoolVar(&cfg.rawNames, "raw-names", false, "keep entry names as stored; unsafe names fail")
	fs.StringVar(&cfg.nameEncoding, "name-encoding", "raw", "stored filename encoding: "+strings.Join(deshield.NameEncodings(), ", "))
	fs.IntVar(&cfg.trailer, "trailer", 0, fmt.Sprintf("trailing byte count accepted as archive end (legacy archives use %d)", deshield.LegacyTrailerSize))
	fs.Int64Var(&cfg.maxSize, "max-size", deshield.DefaultCLIMaxPayloadSize, "reject entries larger than this many bytes (0 disables)")
	fs.BoolVar(&cfg.verbose, "v", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return config{}, errors.New("exactly one archive path is required")
	}
	cfg.archive = fs.Arg(0)

	switch deshield.ExtractFileMode(cfg.mode) {
	case deshield.ExtractFileModeAuto, deshield.ExtractFileModeOverwriteSmart,
		deshield.ExtractFileModeTruncate, deshield.ExtractFileModeCreateOnly:
	default:
		return config{}, fmt.Errorf("unknown file mode %q", cfg.mode)
	}

	if cfg.trailer < 0 {
		return config{}, fmt.Errorf("invalid trailer size %d", cfg.trailer)
	}
	if cfg.maxSize < 0 {
		return config{}, fmt.Errorf("invalid max size %d", cfg.maxSize)
	}
	if _, err := deshield.LookupNameEncoding(cfg.nameEncoding); err != nil {
		return config{}, err
	}

	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// matcherOptions selects default action: any include rule turns fallback into exclude.
func (cfg config) matcherOptions() pathrules.MatcherOptions {
	opts := pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionInclude,
	}
	if cfg.includes > 0 {
		opts.DefaultAction = pathrules.ActionExclude
	}

	return opts
}

func (cfg config) readerOptions() (deshield.ReaderOptions, error) {
	enc, err := deshield.LookupNameEncoding(cfg.nameEncoding)
	if err != nil {
		return deshield.ReaderOptions{}, err
	}

	return deshield.ReaderOptions{
		NameEncoding:   enc,
		MaxPayloadSize: cfg.maxSize,
		TrailerSize:    cfg.trailer,
	}, nil
}

func execute(ctx context.Context, cfg config, stdout io.Writer, logger *slog.Logger) error {
	readerOpts, err := cfg.readerOptions()
	if err != nil {
		return err
	}

	if cfg.list {
		return listArchive(cfg, readerOpts, stdout)
	}

	res, err := deshield.ExtractFile(ctx, cfg.archive, cfg.outDir, readerOpts, deshield.ExtractOptions{
		Logger:         logger,
		FileMode:       deshield.ExtractFileMode(cfg.mode),
		Rules:          cfg.rules,
		MatcherOptions: cfg.matcherOptions(),
		RawNames:       cfg.rawNames,
	})
	if err != nil {
		return err
	}

	logger.Info("extracted",
		slog.String("archive", cfg.archive),
		slog.String("output", cfg.outDir),
		slog.Int("entries", res.Entries),
		slog.Int("extracted", res.Extracted),
		slog.Int("skipped", res.Skipped),
		slog.Int64("bytes", res.BytesWritten))

	return nil
}

// listArchive prints selected entries; entries framed before a failure are still printed.
func listArchive(cfg config, readerOpts deshield.ReaderOptions, stdout io.Writer) error {
	entries, listErr := deshield.ListEntriesWithOptions(cfg.archive, readerOpts)
	if listErr != nil && len(entries) == 0 {
		return listErr
	}

	entries, err := deshield.FilterEntries(entries, cfg.rules, cfg.matcherOptions())
	if err != nil {
		return err
	}

	if cfg.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("write listing: %w", err)
		}
	} else {
		for _, e := range entries {
			if _, err := fmt.Fprintf(stdout, "%d\t%d\t%s\n", e.Index, e.Size, e.Name); err != nil {
				return fmt.Errorf("write listing: %w", err)
			}
		}
	}

	return listErr
}
