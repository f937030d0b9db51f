package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/studyplan/internal/database"
)

func statsCmd() *cobra.Command {
	var (
		userID string
		days   int
		recent int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a learner's recent reviews and mastery",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return errors.New("--days must be positive")
			}

			logger, b, svc, err := setup()
			if err != nil {
				return err
			}
			defer b.Close()
			defer func() { _ = logger.Sync() }()

			logs, ok := b.audit.(*database.ReviewLogRepository)
			if !ok {
				return errors.New("stats: review history needs a sqlite3 or postgres database")
			}

			ctx := cmd.Context()
			end := time.Now()
			start := end.AddDate(0, 0, -days)

			period, err := logs.GetUserStatsByPeriod(ctx, userID, start, end)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			states, err := b.store.ListAll(ctx, userID)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			mastered := 0
			for _, s := range states {
				if svc.Scheduler().IsMastered(s) {
					mastered++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, [][]string{
				{fmt.Sprintf("Reviews (last %d days)", days), strconv.Itoa(period.TotalReviews)},
				{"Passed", strconv.Itoa(period.PassedReviews)},
				{"Average correctness", fmt.Sprintf("%.0f%%", period.AvgCorrectness*100)},
				{"Concepts tracked", strconv.Itoa(len(states))},
				{"Mastered", strconv.Itoa(mastered)},
			}))

			if recent <= 0 {
				return nil
			}
			history, err := logs.GetByUserID(ctx, userID, recent)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			if len(history) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(history))
			for _, h := range history {
				rows = append(rows, []string{
					h.CreatedAt.Local().Format(dateTimeLayout),
					h.ConceptID,
					strconv.Itoa(h.Quality),
					strconv.FormatFloat(h.PreviousEaseFactor, 'f', 2, 64),
					strconv.Itoa(h.PreviousIntervalDays),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"When", "Concept", "Quality", "Ease before", "Interval before"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "learner ID (required)")
	cmd.Flags().IntVar(&days, "days", 7, "length of the reporting period")
	cmd.Flags().IntVar(&recent, "recent", 10, "number of recent reviews to list, 0 for none")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
