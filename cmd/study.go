package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/cheatsheet/internal/app"
	"github.com/abhisek/cheatsheet/internal/screen"
	"github.com/abhisek/cheatsheet/internal/screens/study"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Start a study session in the terminal app",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, true)
	},
}

// runApp launches the TUI, optionally straight into a study session.
func runApp(cmd *cobra.Command, startStudy bool) error {
	d, err := openDeps(cmd.Context())
	if err != nil {
		return err
	}
	defer d.Close()

	opts := app.Options{Service: d.Service}
	if startStudy {
		opts.Initial = func(svc *tutorapp.Service) screen.Screen { return study.New(svc) }
	}
	return app.Run(opts)
}
