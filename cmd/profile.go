package cmd

import (
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the learner profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		p, err := s.UserProfile()
		if err != nil {
			return err
		}
		return printJSON(p)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the learner profile",
	Long: `Update the learner profile. Only the given flags change; --fact replaces
the whole list of profile facts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		p, err := s.UserProfile()
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("major") {
			p.Major, _ = cmd.Flags().GetString("major")
		}
		if cmd.Flags().Changed("career-goal") {
			p.CareerGoal, _ = cmd.Flags().GetString("career-goal")
		}
		if cmd.Flags().Changed("fact") {
			p.Profile, _ = cmd.Flags().GetStringArray("fact")
		}

		if err := s.SaveUserProfile(p); err != nil {
			return err
		}
		saved, err := s.UserProfile()
		if err != nil {
			return err
		}
		return printJSON(saved)
	},
}

func init() {
	profileSetCmd.Flags().String("major", "", "Field of study")
	profileSetCmd.Flags().String("career-goal", "", "Career goal")
	profileSetCmd.Flags().StringArray("fact", nil, "Profile fact (repeatable)")

	profileCmd.AddCommand(profileSetCmd)
}
