package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cheatsheet/internal/knowledge"
	"github.com/abhisek/cheatsheet/internal/quizgen"
	"github.com/abhisek/cheatsheet/internal/tutor"
)

var distributeCmd = &cobra.Command{
	Use:   "distribute",
	Short: "Rebuild the TODAY / SHORT_TERM / LONG_TERM index",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		dist, err := knowledge.NewDistributor(s).Distribute()
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(dist)
		}
		fmt.Printf("TODAY       %d\n", len(dist.Today))
		fmt.Printf("SHORT_TERM  %d\n", len(dist.ShortTerm))
		fmt.Printf("LONG_TERM   %d\n", len(dist.LongTerm))
		return nil
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Decide the next step and generate its question",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		quiz, decision, err := d.Service.NextQuiz(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(struct {
			Decision tutor.Decision `json:"decision"`
			Quiz     *quizgen.Quiz  `json:"quiz,omitempty"`
		}{decision, quiz})
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show freshness and attempt logs per concept",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		p := s.LoadProgress()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(p)
		}
		if p.Len() == 0 {
			fmt.Println("No progress recorded yet.")
			return nil
		}

		fmt.Printf("%-44s  %9s  %8s\n", "Concept", "Freshness", "Attempts")
		rule(ruleWidth)
		for _, ref := range p.Refs() {
			e, _ := p.Get(ref)
			fmt.Printf("%-44s  %9.2f  %8d\n", truncate(ref, 44), e.Freshness, e.Attempts())
		}
		return nil
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the system prompt data for a tutoring conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		data, err := knowledge.NewDistributor(s).SystemPrompt()
		if err != nil {
			return err
		}
		return printJSON(data)
	},
}

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate a batch of quizzes over the concepts to study",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("count")
		if n <= 0 {
			n = cfg.Quiz.DefaultCount
		}

		d, err := openDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		quizzes, err := d.Service.GenerateQuizzes(cmd.Context(), n)
		if err != nil {
			return err
		}
		return printJSON(quizzes)
	},
}

func init() {
	distributeCmd.Flags().Bool("json", false, "Print the distribution as JSON")
	progressCmd.Flags().Bool("json", false, "Print the progress document as JSON")
	quizCmd.Flags().IntP("count", "n", 0, "Number of quizzes (defaults to quiz.default_count)")
}
