package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/cheatsheet/internal/api"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the tutoring tools over MCP on stdio",
	Long: `Serve the tutoring tools to an MCP client over stdin/stdout.

Logs are written to stderr; stdout carries only protocol messages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, err := openDeps(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		return api.ServeMCP(ctx, api.NewMCPServer(d.Service, version), os.Stdin, os.Stdout)
	},
}
