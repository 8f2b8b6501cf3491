package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dropelab/internal/trace"
)

// setupTracing builds the tracer from the trace flags, falling back to
// dropelab.toml for flags left at their defaults. The returned cleanup
// flushes and closes it.
func setupTracing(cmd *cobra.Command) (trace.Tracer, func(), error) {
	flags := cmd.Root().PersistentFlags()
	cfg := loadedConfig.Trace

	output, err := flags.GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	if !flags.Changed("trace") && cfg.Output != "-" {
		output = cfg.Output
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	if !flags.Changed("trace-level") {
		levelStr = cfg.Level
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	if !flags.Changed("trace-mode") {
		modeStr = cfg.Mode
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, err
	}
	// --trace alone asks for phase spans.
	if level == trace.LevelOff && output != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		return trace.Nop, func() {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, nil, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	errOut := cmd.ErrOrStderr()
	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(errOut, "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(errOut, "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

// dumpRing writes the ring buffer of t, if it has one.
func dumpRing(w io.Writer, t trace.Tracer, reason string) {
	ring, ok := trace.RingOf(t)
	if !ok {
		return
	}
	events := ring.Snapshot()
	if len(events) == 0 {
		return
	}
	fmt.Fprintf(w, "--- trace (last %d events, %s) ---\n", len(events), reason)
	_ = ring.Dump(w, trace.FormatText)
	fmt.Fprintln(w, "--- end trace ---")
}
