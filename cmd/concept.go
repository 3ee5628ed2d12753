package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cheatsheet/internal/ingest"
	"github.com/abhisek/cheatsheet/internal/knowledge"
	"github.com/abhisek/cheatsheet/internal/store"
)

var conceptCmd = &cobra.Command{
	Use:   "concept",
	Short: "Add and inspect concepts",
}

var conceptAddCmd = &cobra.Command{
	Use:   "add <course> <title> <content>",
	Short: "Add one concept to a course",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		course, title, content := strings.TrimSpace(args[0]), args[1], args[2]
		if course == "" {
			return errors.New("course name is required")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		saver := ingest.NewSaver(s, knowledge.NewDistributor(s), nil)
		res, err := saver.Save(course, []ingest.Candidate{{Title: title, Content: content}})
		if err != nil {
			return err
		}
		if res.AddedCount == 0 {
			fmt.Printf("%q already exists in %s.\n", title, course)
			return nil
		}
		fmt.Printf("Added %q to %s.\n", title, course)
		return nil
	},
}

var conceptShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a concept by reference (COURSES/<course>/<id>)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		c, ok, err := s.GetConcept(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("concept %s: %w", args[0], store.ErrNotFound)
		}
		return printJSON(c)
	},
}

func init() {
	conceptCmd.AddCommand(conceptAddCmd)
	conceptCmd.AddCommand(conceptShowCmd)
}
