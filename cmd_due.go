package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/studyplan/internal/spaced_repetition"
)

func dueCmd() *cobra.Command {
	var userID, asOfFlag string

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List the concepts due for review, hardest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := parseAsOf(asOfFlag)
			if err != nil {
				return err
			}

			logger, b, svc, err := setup()
			if err != nil {
				return err
			}
			defer b.Close()
			defer func() { _ = logger.Sync() }()

			items, err := svc.DueItems(cmd.Context(), userID, asOf)
			if err != nil {
				return fmt.Errorf("due: %w", err)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due. Come back later.")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, s := range spaced_repetition.Prioritize(items) {
				last := "never"
				if s.LastReviewed != nil {
					last = s.LastReviewed.Format(dateTimeLayout)
				}
				rows = append(rows, []string{
					s.ConceptID,
					s.ConceptTitle,
					strconv.Itoa(s.Repetitions),
					strconv.FormatFloat(s.EaseFactor, 'f', 2, 64),
					last,
					s.NextReview.Format(dateTimeLayout),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Concept", "Title", "Reps", "Ease", "Last reviewed", "Due"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "learner ID (required)")
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "RFC3339 instant to evaluate at (defaults to now)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func scheduleCmd() *cobra.Command {
	var userID, asOfFlag string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show how many reviews fall on each upcoming day",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := parseAsOf(asOfFlag)
			if err != nil {
				return err
			}

			logger, b, svc, err := setup()
			if err != nil {
				return err
			}
			defer b.Close()
			defer func() { _ = logger.Sync() }()

			loads, err := svc.UpcomingSchedule(cmd.Context(), userID, asOf)
			if err != nil {
				return fmt.Errorf("schedule: %w", err)
			}
			if len(loads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No upcoming reviews.")
				return nil
			}

			rows := make([][]string, 0, len(loads))
			for _, l := range loads {
				rows = append(rows, []string{l.DateString(), l.Date.Weekday().String()[:3], strconv.Itoa(l.Count)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Date", "Day", "Reviews"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "learner ID (required)")
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "RFC3339 instant to evaluate at (defaults to now)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func parseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of must be RFC3339: %w", err)
	}
	return t, nil
}
