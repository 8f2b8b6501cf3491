package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"dropelab/internal/driver"
)

func isColorEnabled() bool {
	return !color.NoColor
}

// printTimings writes one block per file: the total, then each phase with
// its call count when a phase ran more than once.
func printTimings(out io.Writer, batch *driver.Batch) {
	dim := color.New(color.Faint)
	for i := range batch.Files {
		res := &batch.Files[i]
		if res.Cached {
			fmt.Fprintf(out, "%s: cached\n", res.Path)
			continue
		}
		fmt.Fprintf(out, "%s: %.2f ms\n", res.Path, res.Timing.TotalMS)
		for _, ph := range res.Timing.Phases {
			line := fmt.Sprintf("  %-14s %8.3f ms", ph.Name, ph.DurationMS)
			if ph.Count > 1 {
				line += dim.Sprintf(" x%d", ph.Count)
			}
			fmt.Fprintln(out, line)
		}
	}
}
