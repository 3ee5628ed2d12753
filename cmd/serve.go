package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/cheatsheet/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, err := openDeps(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		addr := cfg.Server.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}

		handler := api.NewHandler(api.Deps{
			Service:          d.Service,
			Metrics:          d.Metrics,
			MaxUploadBytes:   cfg.Server.MaxUploadBytes,
			DefaultQuizCount: cfg.Quiz.DefaultCount,
		})
		return api.Serve(ctx, api.ServerConfig{
			Addr:            addr,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}, handler)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
