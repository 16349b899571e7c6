package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <scene.yaml>",
		Short: "Step a scene interactively",
		Long: `Inspect opens a terminal UI over a live session. It lists every
component with its lifecycle state and native handle, and lets you step,
run, rebuild actors and end or restart play.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("inspect needs a terminal; use run for scripted sessions")
			}

			s, _, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if err := s.Begin(); err != nil {
				a.logger.Warn("begin reported allocation failures", zap.Error(err))
			}

			// The UI owns the terminal; keep log output off it.
			installLogger(zap.NewNop())
			defer installLogger(a.logger)

			p := tea.NewProgram(newInspectModel(s, args[0]), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}
