package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/pedrito/internal/tui"
)

func newUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Launch the dashboard",
		Long:  "Launch the terminal dashboard. Requires an interactive terminal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runUI(cmd.Context())
		},
	}
}

func (a *app) runUI(ctx context.Context) error {
	if !hasTTY() {
		return errors.New("the dashboard requires an interactive terminal; try `pedrito serve` or `pedrito loops`")
	}
	// Log lines would tear the alt screen.
	if err := a.initLogging(io.Discard); err != nil {
		return err
	}

	rt, err := openRuntime(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	asst := rt.newAssistant()
	done := make(chan error, 1)
	go func() { done <- asst.Run(ctx) }()

	err = tui.Run(ctx, asst, tui.Config{Theme: a.cfg.TUI.Theme})
	cancel()
	if runErr := <-done; err == nil {
		err = runErr
	}
	return err
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
