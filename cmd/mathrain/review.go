package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/mathrain/internal/platform/tui"
	"github.com/vovakirdan/mathrain/internal/storage"
)

var (
	flagReviewPlain  bool
	flagReviewRecent bool
	flagReviewLimit  int
	flagReviewClear  bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse the practice journal",
	Long: `Show the problems you miss most and your recent attempts.

Wrong answers and drops that reached the ground both count as misses.
The journal holds no scores.

Examples:
  mathrain review
  mathrain review --recent
  mathrain review --plain --limit 5
  mathrain review --clear`,
	Args: cobra.NoArgs,
	Run:  runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&flagReviewPlain, "plain", false, "Print instead of opening the interactive table")
	reviewCmd.Flags().BoolVar(&flagReviewRecent, "recent", false, "Start with recent attempts instead of trouble spots")
	reviewCmd.Flags().IntVar(&flagReviewLimit, "limit", 10, "Rows to print with --plain")
	reviewCmd.Flags().BoolVar(&flagReviewClear, "clear", false, "Delete the whole journal")
}

func runReview(_ *cobra.Command, _ []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening practice journal: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagReviewClear {
		if err := store.ClearJournal(); err != nil {
			colorAlert.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		colorTitle.Println("Practice journal cleared.")
		return
	}

	view := tui.ViewTroubleSpots
	if flagReviewRecent {
		view = tui.ViewRecent
	}

	fd := int(os.Stdout.Fd())
	if !flagReviewPlain && term.IsTerminal(fd) {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(fd); termErr == nil {
			width, height = w, h
		}
		if err := tui.RunReview(store, view, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := printReview(store, view); err != nil {
		colorAlert.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printReview(store *storage.Store, view tui.ReviewView) error {
	sum, err := store.Summarize()
	if err != nil {
		return err
	}

	colorTitle.Println("Practice journal")
	fmt.Printf("%d sessions, %d correct, %d wrong, %d landed (%.0f%% accuracy)\n\n",
		sum.Sessions, sum.Correct, sum.Wrong, sum.Expired, sum.Accuracy()*100)

	if view == tui.ViewRecent {
		attempts, err := store.RecentAttempts(flagReviewLimit)
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			fmt.Println("No attempts recorded yet.")
			fmt.Println()
			fmt.Println("Play 'mathrain play' to fill the journal.")
			return nil
		}

		fmt.Printf("  %-12s  %-6s  %-6s  %-8s  %s\n", "Problem", "Answer", "Given", "Outcome", "Date")
		fmt.Printf("  %-12s  %-6s  %-6s  %-8s  %s\n", "-------", "------", "-----", "-------", "----")
		for _, a := range attempts {
			c := colorDefault
			if a.Outcome != storage.OutcomeCorrect {
				c = colorAlert
			}
			given := a.Given
			if given == "" {
				given = "-"
			}
			fmt.Printf("  %-12s  %-6d  %-6s  ", a.Expression, a.Answer, given)
			c.Printf("%-8s", a.Outcome)
			fmt.Printf("  %s\n", a.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	}

	spots, err := store.TroubleSpots(flagReviewLimit)
	if err != nil {
		return err
	}
	if len(spots) == 0 {
		fmt.Println("No misses recorded yet.")
		return nil
	}

	fmt.Printf("  %-12s  %-6s  %s\n", "Problem", "Answer", "Misses")
	fmt.Printf("  %-12s  %-6s  %s\n", "-------", "------", "------")
	for _, t := range spots {
		fmt.Printf("  %-12s  %-6d  ", t.Expression, t.Answer)
		colorAlert.Printf("%d", t.Misses)
		colorDim.Printf(" of %d\n", t.Attempts)
	}
	return nil
}
