package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"yada/internal/domain"
	"yada/internal/usecase"
)

var (
	logDate     string
	logServings int
	logJSON     bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record what you ate",
}

var logAddCmd = &cobra.Command{
	Use:   "add FOOD_ID",
	Short: "Log servings of a food",
	Long: `Append an entry to the day's log.

Examples:
  yada log add apple
  yada log add pb_sandwich -n 2 --date 2024-03-01`,
	Args: cobra.ExactArgs(1),
	RunE: runLogAdd,
}

var logRmCmd = &cobra.Command{
	Use:   "rm N",
	Short: "Remove the Nth entry of the day, as numbered by 'log show'",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogRm,
}

var logShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the day's entries, total and target",
	Args:  cobra.NoArgs,
	RunE:  runLogShow,
}

var logUndoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Revert the most recent log change, whatever its date",
	Args:  cobra.NoArgs,
	RunE:  runLogUndo,
}

var logDatesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List dates with entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, false, func(ctx context.Context, s *usecase.Session) error {
			for _, d := range s.Ledger().Dates() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %5d cal\n", d, s.Ledger().TotalCalories(d, s.Catalog()))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logAddCmd, logRmCmd, logShowCmd, logUndoCmd, logDatesCmd)

	for _, c := range []*cobra.Command{logAddCmd, logRmCmd, logShowCmd} {
		c.Flags().StringVar(&logDate, "date", "", "date as YYYY-MM-DD (default today)")
	}
	logAddCmd.Flags().IntVarP(&logServings, "servings", "n", 1, "number of servings")
	logShowCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON")
}

// resolveDate returns the --date value in canonical form, or today.
func resolveDate() (string, error) {
	if logDate == "" {
		return domain.DateKey(time.Now()), nil
	}
	return domain.ParseDateKey(logDate)
}

func runLogAdd(cmd *cobra.Command, args []string) error {
	if logServings <= 0 {
		return errors.New("--servings must be a positive number")
	}
	date, err := resolveDate()
	if err != nil {
		return err
	}

	return runSession(cmd, true, func(ctx context.Context, s *usecase.Session) error {
		id := args[0]
		food, ok := s.Catalog().Get(id)
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %q is not in the catalog and counts as 0 calories\n", id)
			food = domain.Food{ID: id, Name: "?" + id}
		}

		s.Ledger().LogFood(date, id, logServings)
		fmt.Fprintf(cmd.OutOrStdout(), "Logged %d x %s (%d cal) on %s\n", logServings, food.Name, food.Calories*logServings, date)
		return nil
	})
}

func runLogRm(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid entry number %q", args[0])
	}
	date, err := resolveDate()
	if err != nil {
		return err
	}

	return runSession(cmd, true, func(ctx context.Context, s *usecase.Session) error {
		if !s.Ledger().DeleteFood(date, n-1) {
			return fmt.Errorf("no entry %d on %s", n, date)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed entry %d from %s\n", n, date)
		return nil
	})
}

func runLogShow(cmd *cobra.Command, args []string) error {
	date, err := resolveDate()
	if err != nil {
		return err
	}

	return runSession(cmd, false, func(ctx context.Context, s *usecase.Session) error {
		sum := s.Summary(date)
		if logJSON {
			return writeJSON(cmd.OutOrStdout(), sum)
		}
		printSummary(cmd.OutOrStdout(), sum)
		return nil
	})
}

func runLogUndo(cmd *cobra.Command, args []string) error {
	return runSession(cmd, true, func(ctx context.Context, s *usecase.Session) error {
		history := s.Ledger().History()
		if len(history) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to undo.")
			return nil
		}

		last := history[len(history)-1]
		undone := last.Entry
		if last.Kind == domain.CommandAdded {
			// Undoing an add drops the date's last entry, not necessarily the
			// one the command logged.
			if seq := s.Ledger().EntriesFor(last.Date); len(seq) > 0 {
				undone = seq[len(seq)-1]
			}
		}
		if !s.Ledger().Undo() {
			fmt.Fprintf(cmd.OutOrStdout(), "Nothing left on %s to undo; dropped the %s command.\n", last.Date, last.Kind)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Undid %s %s on %s\n", last.Kind, undone.FoodID, last.Date)
		return nil
	})
}

func printSummary(out io.Writer, sum usecase.DaySummary) {
	fmt.Fprintf(out, "Log for %s\n", sum.Date)
	if len(sum.Lines) == 0 {
		fmt.Fprintln(out, "  (no entries)")
	}
	for _, l := range sum.Lines {
		fmt.Fprintf(out, "  %2d. %-28s x%-3d %6d cal  %s\n", l.Index, l.Name, l.Servings, l.Calories, l.Timestamp.Local().Format("15:04"))
	}

	fmt.Fprintf(out, "\n  Consumed: %6d cal\n", sum.Total)
	if !sum.HasTarget {
		fmt.Fprintln(out, "  No profile; run 'yada profile create' to see a target.")
		return
	}
	fmt.Fprintf(out, "  Target:   %6d cal\n", sum.Target)
	switch {
	case sum.Difference > 0:
		fmt.Fprintf(out, "  Over by:  %6d cal\n", sum.Difference)
	default:
		fmt.Fprintf(out, "  Left:     %6d cal\n", -sum.Difference)
	}
}
