package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addCmd() *cobra.Command {
	var userID, title string

	cmd := &cobra.Command{
		Use:   "add <concept-id>",
		Short: "Put a concept on a learner's review queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, b, svc, err := setup()
			if err != nil {
				return err
			}
			defer b.Close()
			defer func() { _ = logger.Sync() }()

			state, created, err := svc.AddConcept(cmd.Context(), userID, args[0], title)
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s (%s), due now\n", state.ConceptID, state.ConceptTitle)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already queued, next review %s\n", state.ConceptID, state.NextReview.Format(dateTimeLayout))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "learner ID (required)")
	cmd.Flags().StringVar(&title, "title", "", "display title (defaults to the concept ID)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
