package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cheatsheet/internal/ingest"
)

var importCmd = &cobra.Command{
	Use:   "import <course> <file.pdf>",
	Short: "Extract concepts from a PDF and save them to a course",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		course, path := strings.TrimSpace(args[0]), args[1]
		if course == "" {
			return errors.New("course name is required")
		}
		name := filepath.Base(path)
		if !ingest.IsPDFName(name) {
			return fmt.Errorf("%s: only PDF files are allowed", name)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		d, err := openDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		ex, res, err := d.Service.Import(cmd.Context(), course, ingest.Document{Filename: name, Data: data})
		if err != nil {
			return err
		}
		if ex.Warning != "" {
			fmt.Fprintln(os.Stderr, "warning:", ex.Warning)
		}

		for _, c := range ex.Concepts {
			fmt.Println("  •", c.Title)
		}
		fmt.Printf("%d extracted, %d added, %d skipped.\n", len(ex.Concepts), res.AddedCount, res.SkippedCount)
		return nil
	},
}
