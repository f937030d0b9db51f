package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/studyplan/internal/excel"
)

func importCmd() *cobra.Command {
	importCfg := excel.DefaultImportConfig()

	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Queue concepts for a learner from a spreadsheet or CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, b, svc, err := setup()
			if err != nil {
				return err
			}
			defer b.Close()
			defer func() { _ = logger.Sync() }()

			importCfg.FilePath = args[0]
			result, err := excel.ImportConcepts(cmd.Context(), svc, importCfg)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed %d rows: %d queued, %d already queued, %d errors\n",
				result.TotalProcessed, result.Created, result.Skipped, len(result.Errors))
			for _, e := range result.Errors {
				fmt.Fprintln(out, "  "+e)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&importCfg.UserID, "user", "", "learner ID (required)")
	f.StringVar(&importCfg.ConceptColumn, "concept-column", importCfg.ConceptColumn, "column holding the concept ID")
	f.StringVar(&importCfg.TitleColumn, "title-column", importCfg.TitleColumn, "column holding the title, empty for none")
	f.StringVar(&importCfg.SheetName, "sheet", importCfg.SheetName, "worksheet to read (xlsx only)")
	f.IntVar(&importCfg.StartRow, "start-row", importCfg.StartRow, "first row to import, 1-based")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
