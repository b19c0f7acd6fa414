package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"yada/internal/domain"
	"yada/internal/usecase"
)

var (
	profGender   string
	profHeight   float64
	profAge      int
	profWeight   float64
	profActivity string
	profMethod   string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the body profile behind the calorie target",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile and daily target",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, false, func(ctx context.Context, s *usecase.Session) error {
			p, ok := s.Profile()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No profile; run 'yada profile create'.")
				return nil
			}
			printProfile(cmd.OutOrStdout(), p, s.ProfileHistory().Len())
			return nil
		})
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create (or replace) the profile",
	Long: `Create the profile. Replacing an existing profile can be undone.

Example:
  yada profile create --gender female --height 165 --age 31 --weight 60 --activity moderately`,
	Args: cobra.NoArgs,
	RunE: runProfileCreate,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more profile fields",
	Long: `Change profile fields. All fields changed by one call are undone together.

Example:
  yada profile set --weight 78.5`,
	Args: cobra.NoArgs,
	RunE: runProfileSet,
}

var profileMethodCmd = &cobra.Command{
	Use:   "method [NAME]",
	Short: "Choose the calorie calculation method, or list them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileMethod,
}

var profileUndoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Revert the last profile change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, true, func(ctx context.Context, s *usecase.Session) error {
			if !s.UndoProfile() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to undo.")
				return nil
			}
			p, _ := s.Profile()
			fmt.Fprintln(cmd.OutOrStdout(), "Profile restored.")
			printProfile(cmd.OutOrStdout(), p, s.ProfileHistory().Len())
			return nil
		})
	},
}

var profileUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users with a saved log or profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(GetConfig(), GetRootDir())
		if err != nil {
			return err
		}
		defer st.Close()

		users, err := st.Users(cmd.Context())
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Fprintln(cmd.OutOrStdout(), u)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd, profileCreateCmd, profileSetCmd, profileMethodCmd, profileUndoCmd, profileUsersCmd)

	for _, c := range []*cobra.Command{profileCreateCmd, profileSetCmd} {
		c.Flags().StringVar(&profGender, "gender", "", "male, female or other")
		c.Flags().Float64Var(&profHeight, "height", 0, "height in cm")
		c.Flags().IntVar(&profAge, "age", 0, "age in years")
		c.Flags().Float64Var(&profWeight, "weight", 0, "weight in kg")
		c.Flags().StringVar(&profActivity, "activity", "", "sedentary, lightly, moderately, very or extremely")
	}
	profileCreateCmd.Flags().StringVar(&profMethod, "method", "", "calculation method (default from config)")
	for _, name := range []string{"gender", "height", "age", "weight", "activity"} {
		profileCreateCmd.MarkFlagRequired(name)
	}
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	if err := validateMeasurements(cmd); err != nil {
		return err
	}
	activity, err := domain.ParseActivityLevel(profActivity)
	if err != nil {
		return err
	}

	return runSession(cmd, true, func(ctx context.Context, s *usecase.Session) error {
		p := domain.NewProfile(s.User(), domain.ParseGender(profGender), profHeight, profAge, profWeight, activity)
		switch {
		case profMethod != "":
			p.Method = profMethod
		case GetConfig().Profile.DefaultMethod != "":
			p.Method = GetConfig().Profile.DefaultMethod
		}

		if _, exists := s.Profile(); exists {
			if err := s.UpdateProfile(func(old *domain.Profile) { *old = p }); err != nil {
				return err
			}
		} else {
			s.SetProfile(p)
		}
		printProfile(cmd.OutOrStdout(), p, s.ProfileHistory().Len())
		return nil
	})
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	changed := false
	for _, name := range []string{"gender", "height", "age", "weight", "activity"} {
		changed = changed || flags.Changed(name)
	}
	if !changed {
		return errors.New("nothing to change: pass at least one of --gender, --height, --age, --weight, --activity")
	}
	if err := validateMeasurements(cmd); err != nil {
		return err
	}

	var activity domain.ActivityLevel
	if flags.Changed("activity") {
		var err error
		if activity, err = domain.ParseActivityLevel(profActivity); err != nil {
			return err
		}
	}

	return runSession(cmd, true, func(ctx context.Context, s *usecase.Session) error {
		err := s.UpdateProfile(func(p *domain.Profile) {
			if flags.Changed("gender") {
				p.Gender = domain.ParseGender(profGender)
			}
			if flags.Changed("height") {
				p.HeightCM = profHeight
			}
			if flags.Changed("age") {
				p.Age = profAge
			}
			if flags.Changed("weight") {
				p.WeightKG = profWeight
			}
			if flags.Changed("activity") {
				p.Activity = activity
			}
		})
		if errors.Is(err, usecase.ErrNoProfile) {
			return errors.New("no profile yet; run 'yada profile create' first")
		}
		if err != nil {
			return err
		}

		p, _ := s.Profile()
		printProfile(cmd.OutOrStdout(), p, s.ProfileHistory().Len())
		return nil
	})
}

func runProfileMethod(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, name := range domain.CalculatorNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	return runSession(cmd, true, func(ctx context.Context, s *usecase.Session) error {
		if err := s.SetMethod(args[0]); err != nil {
			if errors.Is(err, usecase.ErrNoProfile) {
				return errors.New("no profile yet; run 'yada profile create' first")
			}
			return err
		}
		if _, ok := domain.LookupCalculator(args[0]); !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: unknown method %q; known methods: %s\n",
				args[0], strings.Join(domain.CalculatorNames(), ", "))
		}
		p, _ := s.Profile()
		fmt.Fprintf(cmd.OutOrStdout(), "Method set to %s; daily target %d cal\n", p.Method, p.DailyTargetCalories())
		return nil
	})
}

// validateMeasurements checks the numeric flags that were given.
func validateMeasurements(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("height") && profHeight <= 0 {
		return errors.New("--height must be positive")
	}
	if flags.Changed("weight") && profWeight <= 0 {
		return errors.New("--weight must be positive")
	}
	if flags.Changed("age") && profAge <= 0 {
		return errors.New("--age must be positive")
	}
	return nil
}

func printProfile(out io.Writer, p domain.Profile, undo int) {
	fmt.Fprintf(out, "Profile: %s\n", p.Username)
	fmt.Fprintf(out, "  Gender:    %s\n", p.Gender)
	fmt.Fprintf(out, "  Height:    %.1f cm\n", p.HeightCM)
	fmt.Fprintf(out, "  Age:       %d\n", p.Age)
	fmt.Fprintf(out, "  Weight:    %.1f kg\n", p.WeightKG)
	fmt.Fprintf(out, "  Activity:  %s\n", p.Activity)
	fmt.Fprintf(out, "  Method:    %s\n", p.Method)
	fmt.Fprintf(out, "  Target:    %d cal/day\n", p.DailyTargetCalories())
	if undo > 0 {
		fmt.Fprintf(out, "  (%d change(s) can be undone)\n", undo)
	}
}
