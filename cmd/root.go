package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/cheatsheet/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cheatsheet",
	Short: "Spaced-repetition study assistant",
	Long: `Cheatsheet turns lecture notes into concepts, sorts them by how recently
they were studied, and quizzes you until they stick.

Run without a subcommand to open the terminal app.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, false)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides CHEATSHEET_CONFIG)")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory holding the JSON documents and event log (overrides CHEATSHEET_DATA_DIR)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(conceptCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(distributeCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration with flags taking priority over the
// file and the environment, then installs the slog default.
func loadConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}

	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		c.DataDir = dir
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		c.Log.Level = lvl
	}

	level, err := config.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	// Logs go to stderr so stdout stays clean for JSON and the MCP stdio
	// transport.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg = c
	return nil
}
