package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dropelab/internal/diag"
	"dropelab/internal/diagfmt"
	"dropelab/internal/driver"
)

var elaborateCmd = &cobra.Command{
	Use:   "elaborate [flags] <file.mir>...",
	Short: "Elaborate drops and print the rewritten bodies",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFiles(cmd, args, driver.ModeElaborate)
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [flags] <file.mir>...",
	Short: "Report the drop style of every drop marker",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFiles(cmd, args, driver.ModeClassify)
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <file.mir>...",
	Short: "Parse, validate and print MIR back",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFiles(cmd, args, driver.ModeDump)
	},
}

func init() {
	elaborateCmd.Flags().Bool("simplify", false, "simplify the CFG of elaborated bodies")
	for _, cmd := range []*cobra.Command{elaborateCmd, classifyCmd, dumpCmd} {
		cmd.Flags().String("format", "pretty", "diagnostic format (pretty|short|json)")
		cmd.Flags().Bool("with-notes", false, "include diagnostic notes")
		cmd.Flags().Bool("fullpath", false, "emit absolute file paths in diagnostics")
	}
}

// runSettings is the merged view of flags and dropelab.toml for one run.
type runSettings struct {
	format    string
	withNotes bool
	fullPath  bool
	quiet     bool
	timings   bool
	ui        uiMode
	opts      driver.Options
}

func readRunSettings(cmd *cobra.Command, mode driver.Mode) (*runSettings, error) {
	root := cmd.Root().PersistentFlags()
	s := &runSettings{opts: driver.Options{Mode: mode}}
	var err error

	if s.format, err = cmd.Flags().GetString("format"); err != nil {
		return nil, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch s.format {
	case "pretty", "short", "json":
	default:
		return nil, fmt.Errorf("unsupported format %q (must be pretty, short or json)", s.format)
	}
	if s.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return nil, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if s.fullPath, err = cmd.Flags().GetBool("fullpath"); err != nil {
		return nil, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if s.quiet, err = root.GetBool("quiet"); err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = root.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	uiFlag, err := root.GetString("ui")
	if err != nil {
		return nil, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if s.ui, err = readUIMode(uiFlag); err != nil {
		return nil, err
	}

	cfg := loadedConfig
	s.opts.Jobs = cfg.Run.Jobs
	if root.Changed("jobs") {
		if s.opts.Jobs, err = root.GetInt("jobs"); err != nil {
			return nil, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	s.opts.MaxDiagnostics = cfg.Diag.Max
	if root.Changed("max-diagnostics") || cfg.Diag.Max == 0 {
		if s.opts.MaxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
			return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	s.opts.Simplify = cfg.Run.Simplify
	if f := cmd.Flags().Lookup("simplify"); f != nil && f.Changed {
		if s.opts.Simplify, err = cmd.Flags().GetBool("simplify"); err != nil {
			return nil, fmt.Errorf("failed to get simplify flag: %w", err)
		}
	}
	s.opts.Timings = s.timings

	noCache, err := root.GetBool("no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if cfg.Run.Cache && !noCache {
		cache, err := driver.OpenDiskCache("dropelab")
		if err != nil {
			if !s.quiet {
				fmt.Fprintf(os.Stderr, "warning: disk cache disabled: %v\n", err)
			}
		} else {
			s.opts.Cache = cache
		}
	}
	return s, nil
}

func runFiles(cmd *cobra.Command, files []string, mode driver.Mode) (err error) {
	settings, err := readRunSettings(cmd, mode)
	if err != nil {
		return err
	}
	stopProfiling, err := startProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	tracer, cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	settings.opts.Tracer = tracer

	errOut := cmd.ErrOrStderr()
	defer func() {
		if r := recover(); r != nil {
			dumpRing(errOut, tracer, "panic")
			panic(r)
		}
	}()

	ctx := cmd.Context()
	var batch *driver.Batch
	if !settings.quiet && shouldUseTUI(settings.ui, len(files)) {
		batch, err = runWithUI(ctx, mode.String(), files, settings.opts)
	} else {
		batch, err = driver.Run(ctx, files, settings.opts)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i := range batch.Files {
		res := &batch.Files[i]
		if res.Output == "" {
			continue
		}
		if len(batch.Files) > 1 {
			fmt.Fprintf(out, "// %s\n", res.Path)
		}
		_, _ = io.WriteString(out, res.Output)
		if len(batch.Files) > 1 && i < len(batch.Files)-1 {
			fmt.Fprintln(out)
		}
	}

	if err := printDiagnostics(errOut, batch, settings); err != nil {
		return err
	}
	for i := range batch.Files {
		if len(batch.Files[i].Aborted) > 0 {
			dumpRing(errOut, tracer, "elaboration aborted in "+strings.Join(batch.Files[i].Aborted, ", "))
		}
	}
	if settings.timings {
		printTimings(errOut, batch)
	}
	if !settings.quiet && mode == driver.ModeElaborate {
		fmt.Fprintf(errOut, "%s: %s\n", summaryLabel(batch), batch.Stats())
	}
	if batch.HasErrors() {
		return &exitError{code: 1}
	}
	return nil
}

func printDiagnostics(w io.Writer, batch *driver.Batch, s *runSettings) error {
	all := diag.NewBag(0)
	for i := range batch.Files {
		all.Merge(batch.Files[i].Bag)
	}
	if all.Len() == 0 {
		return nil
	}
	all.Sort()
	pathMode := diagfmt.PathModeAuto
	if s.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	switch s.format {
	case "short":
		if text := diag.FormatShortDiagnostics(all.Items(), batch.FileSet, s.withNotes); text != "" {
			fmt.Fprintln(w, text)
		}
	case "json":
		return diagfmt.JSON(w, all, batch.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     s.withNotes,
		})
	default:
		diagfmt.Pretty(w, all, batch.FileSet, diagfmt.PrettyOpts{
			Color:     isColorEnabled(),
			Context:   2,
			PathMode:  pathMode,
			ShowNotes: s.withNotes,
		})
	}
	for _, note := range limitNotes(batch) {
		fmt.Fprintln(w, note)
	}
	return nil
}

// limitNotes names the files whose diagnostics were cut at the limit.
func limitNotes(batch *driver.Batch) []string {
	var out []string
	for i := range batch.Files {
		bag := batch.Files[i].Bag
		if bag != nil && bag.Cap() > 0 && bag.Len() >= bag.Cap() {
			out = append(out, fmt.Sprintf("note: %s reached the limit of %d diagnostics, the rest were dropped",
				batch.Files[i].Path, bag.Cap()))
		}
	}
	return out
}

func summaryLabel(batch *driver.Batch) string {
	cached := 0
	for i := range batch.Files {
		if batch.Files[i].Cached {
			cached++
		}
	}
	label := fmt.Sprintf("elaborated %d file(s)", len(batch.Files))
	if cached > 0 {
		label += fmt.Sprintf(" (%d cached)", cached)
	}
	return label
}
