package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Browse courses and their concepts",
}

var courseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List course names",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		courses, err := s.Courses()
		if err != nil {
			return err
		}
		if len(courses) == 0 {
			fmt.Println("No courses yet. Import a PDF with `cheatsheet import`.")
			return nil
		}
		for _, c := range courses {
			fmt.Println(c)
		}
		return nil
	},
}

var courseShowCmd = &cobra.Command{
	Use:   "show <course>",
	Short: "Show the concepts of a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		concepts, err := s.Course(args[0])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(concepts)
		}

		fmt.Printf("%-24s  %-30s  %s\n", "ID", "Title", "Created")
		rule(ruleWidth)
		for _, c := range concepts {
			fmt.Printf("%-24s  %-30s  %s\n", c.ID, truncate(c.Title, 30), c.Timestamp)
		}
		return nil
	},
}

func init() {
	courseShowCmd.Flags().Bool("json", false, "Print the concepts as JSON")

	courseCmd.AddCommand(courseListCmd)
	courseCmd.AddCommand(courseShowCmd)
}
