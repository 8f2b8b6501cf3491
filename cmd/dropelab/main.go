package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dropelab/internal/project"
	"dropelab/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "dropelab",
	Short:         "Drop elaboration for textual MIR",
	Long:          `dropelab rewrites the drop markers of MIR function bodies into explicit, flag-guarded drop code`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := project.Load(".")
		if err != nil {
			return err
		}
		loadedConfig = cfg
		colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
		if err != nil {
			return fmt.Errorf("failed to get color flag: %w", err)
		}
		useColor, err := readColorMode(colorFlag)
		if err != nil {
			return err
		}
		color.NoColor = !useColor
		return nil
	},
}

// loadedConfig is the dropelab.toml in effect, read once before any
// subcommand runs.
var loadedConfig = project.Default()

// exitError carries a non-zero exit status without another message; the
// command already reported what went wrong.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(elaborateCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show per-phase timings")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per file")
	rootCmd.PersistentFlags().Int("jobs", 0, "max files processed in parallel (0=auto)")
	rootCmd.PersistentFlags().String("ui", "auto", "progress view (auto|on|off)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the on-disk result cache")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "text", "trace format (text|ndjson)")
	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("exectrace", "", "write a runtime execution trace to file")

	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func readColorMode(value string) (bool, error) {
	switch value {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		return isTerminal(os.Stderr), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
