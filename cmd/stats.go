package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cheatsheet/internal/tutorapp"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		events, err := openEventLog(s)
		if err != nil {
			return err
		}
		defer events.Close()

		svc := tutorapp.New(tutorapp.Options{
			Store:                s,
			Events:               events,
			RemediationThreshold: cfg.Tutor.RemediationThreshold,
		})
		st, err := svc.Stats(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(st)
		}

		fmt.Println("Concepts")
		rule(40)
		fmt.Printf("%-20s %8d\n", "Courses", st.Courses)
		fmt.Printf("%-20s %8d\n", "Concepts", st.Concepts)
		fmt.Printf("%-20s %8d\n", "  today", st.Today)
		fmt.Printf("%-20s %8d\n", "  short term", st.ShortTerm)
		fmt.Printf("%-20s %8d\n", "  long term", st.LongTerm)
		fmt.Println()
		fmt.Println("Progress")
		rule(40)
		fmt.Printf("%-20s %8d\n", "Evaluated", st.Evaluated)
		fmt.Printf("%-20s %8d\n", "Due for review", st.Due)
		fmt.Printf("%-20s %7.0f%%\n", "Avg freshness", st.AvgFreshness*100)

		if ev := st.Evaluations; ev != nil && ev.Total > 0 {
			fmt.Println()
			fmt.Println("Answers")
			rule(40)
			fmt.Printf("%-20s %8d\n", "Graded", ev.Total)
			fmt.Printf("%-20s %8d\n", "Correct", ev.Correct)
			fmt.Printf("%-20s %8.1f\n", "Avg score", ev.AvgScore)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "Print the statistics as JSON")
}
