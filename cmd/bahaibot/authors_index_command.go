package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bahaibot/internal/authorsindex"
	"bahaibot/internal/fileutil"
	"bahaibot/internal/logging"
)

func newAuthorsIndexCommand(ctx *commandContext) *cobra.Command {
	var (
		plain              bool
		exclusions, output string
	)
	cmd := &cobra.Command{
		Use:   "authors-index [letter]",
		Short: "List the Authors-A..Z categories of the works wiki for the Authors page",
		Long: `Reads Category:Authors-A through Category:Authors-Z (or one letter) and
writes a "Last, First" link list per letter. Titles in the exclusion file are
left out. The output file is replaced on every run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			letters, err := authorsindex.Letters(arg)
			if err != nil {
				return err
			}
			exclusionPath := cfg.ImportLogPath(exclusions)
			exclude, found, err := authorsindex.LoadExclusions(exclusionPath)
			if err != nil {
				return err
			}
			logger := ctx.loggerValue()
			if !found {
				logging.WarnWithContext(logger, "exclusion list not found", "authors_exclusions_missing",
					logging.String("path", exclusionPath),
					logging.String(logging.FieldImpact, "no authors excluded"))
			}

			runCtx := ctx.runContext(cmd)
			session, err := ctx.dialWorks(runCtx)
			if err != nil {
				return err
			}
			defer session.Logout()
			results, runErr := authorsindex.Index{Wiki: session, Exclude: exclude, Logger: logger}.Collect(runCtx, letters)

			target := cfg.ImportLogPath(output)
			if _, err := fileutil.WriteFile(target, []byte(authorsindex.Render(results, exclude, plain))); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(results))
			listed, failed := 0, 0
			for _, r := range results {
				status := "ok"
				if r.Err != nil {
					status = r.Err.Error()
					failed++
				}
				listed += len(r.Members) - r.Excluded
				rows = append(rows, []string{r.Category, strconv.Itoa(len(r.Members)), strconv.Itoa(r.Excluded), status})
			}
			if len(rows) > 1 || failed > 0 {
				fmt.Fprintln(out, renderTable(out, []string{"Category", "Members", "Excluded", "Status"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft}))
			}
			fmt.Fprintf(out, "Listed %d author(s) from %d categor(ies) in %s, %d failed\n", listed, len(results), target, failed)
			return runErr
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Write bare page titles without headings or links")
	cmd.Flags().StringVar(&exclusions, "exclude", "pages-from-cat-exclusion-list.txt", "Titles to leave out, relative to import.output_dir")
	cmd.Flags().StringVarP(&output, "output", "o", "authors-index.txt", "Listing file, relative to import.output_dir")
	return cmd
}
