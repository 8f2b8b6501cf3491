package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"dropelab/internal/driver"
	"dropelab/internal/ui"
)

type runOutcome struct {
	batch *driver.Batch
	err   error
}

// runWithUI drives the batch in the background and renders its progress
// events until the batch finishes.
func runWithUI(ctx context.Context, title string, files []string, opts driver.Options) (*driver.Batch, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		opts.Progress = driver.ChannelSink{Ch: events}
		batch, err := driver.Run(ctx, files, opts)
		outcomeCh <- runOutcome{batch: batch, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		// Keep draining so the driver never blocks on a full channel.
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.batch, uiErr
	}
	return outcome.batch, outcome.err
}
