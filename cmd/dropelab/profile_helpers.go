package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dropelab/internal/prof"
)

// startProfiling starts the profiles named by --cpuprofile, --memprofile
// and --exectrace. The returned stop function reports its own errors.
func startProfiling(cmd *cobra.Command) (func(), error) {
	flags := cmd.Root().PersistentFlags()
	var cfg prof.Config
	var err error
	if cfg.CPU, err = flags.GetString("cpuprofile"); err != nil {
		return nil, fmt.Errorf("failed to get cpuprofile flag: %w", err)
	}
	if cfg.Heap, err = flags.GetString("memprofile"); err != nil {
		return nil, fmt.Errorf("failed to get memprofile flag: %w", err)
	}
	if cfg.Trace, err = flags.GetString("exectrace"); err != nil {
		return nil, fmt.Errorf("failed to get exectrace flag: %w", err)
	}
	if !cfg.Enabled() {
		return func() {}, nil
	}
	session, err := prof.Start(cfg)
	if err != nil {
		return nil, err
	}
	errOut := cmd.ErrOrStderr()
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(errOut, "profile: %v\n", err)
		}
	}, nil
}
