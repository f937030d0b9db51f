package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/studyplan/internal/review"
	"github.com/example/studyplan/internal/session"
	"github.com/example/studyplan/internal/spaced_repetition"
	"github.com/example/studyplan/pkg/models"
)

// gradeLabels maps the four answer buttons onto SM-2 quality
var gradeLabels = map[string]int{
	"again": int(spaced_repetition.QualityBlackout),
	"hard":  int(spaced_repetition.QualityCorrectDifficult),
	"good":  int(spaced_repetition.QualityCorrectHesitation),
	"easy":  int(spaced_repetition.QualityPerfect),
}

func reviewCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Work through the due concepts interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, b, svc, err := setup()
			if err != nil {
				return err
			}
			defer b.Close()
			defer func() { _ = logger.Sync() }()

			stats, err := runReview(cmd.Context(), svc, userID, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("review: %w", err)
			}
			if stats.Reviewed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\nReviewed %d, passed %d (%.0f%%)\n",
					stats.Reviewed, stats.Passed, stats.Accuracy*100)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "learner ID (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// runReview grades every due concept from lines read from in. Reading
// stops early at EOF or "q", and whatever was graded so far is kept.
func runReview(ctx context.Context, svc *review.Service, userID string, in io.Reader, out io.Writer) (session.Stats, error) {
	due, err := svc.DueItems(ctx, userID, svc.Now())
	if err != nil {
		return session.Stats{}, err
	}

	sess := session.New(svc.Scheduler())
	if err := sess.Start(spaced_repetition.Prioritize(due)); err != nil {
		return session.Stats{}, err
	}
	if sess.State() == session.Completed {
		fmt.Fprintln(out, "Nothing due. Come back later.")
		return sess.Stats(), nil
	}

	scanner := bufio.NewScanner(in)
	for sess.State() == session.InProgress {
		current, err := sess.Current()
		if err != nil {
			return sess.Stats(), err
		}

		fmt.Fprintf(out, "\n%s %s\n", dimStyle.Render(fmt.Sprintf("[%d/%d]", sess.Position(), sess.Len())), promptStyle.Render(current.ConceptTitle))
		fmt.Fprint(out, dimStyle.Render("again/hard/good/easy or 0-5, q to stop: "))

		if !scanner.Scan() {
			break
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer == "q" || answer == "quit" {
			break
		}

		quality, err := parseGrade(answer)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		updated, err := sess.Grade(ctx, quality, svc.Now(), func(ctx context.Context, next models.MemoryState) error {
			return svc.Commit(ctx, current, next)
		})
		if errors.Is(err, review.ErrConflict) {
			fmt.Fprintln(out, "This concept was graded elsewhere meanwhile, start the review again.")
			return sess.Stats(), err
		}
		if err != nil {
			return sess.Stats(), err
		}
		fmt.Fprintf(out, "Next review in %d day(s)\n", updated.IntervalDays)
	}

	return sess.Stats(), scanner.Err()
}

func parseGrade(answer string) (int, error) {
	if q, ok := gradeLabels[answer]; ok {
		return q, nil
	}
	q, err := strconv.Atoi(answer)
	if err != nil || spaced_repetition.ValidateQuality(q) != nil {
		return 0, fmt.Errorf("%q is not a grade", answer)
	}
	return q, nil
}
