package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"bahaibot/internal/authorpages"
	"bahaibot/internal/importlog"
	"bahaibot/internal/services"
)

const authorPageSummary = "Create author page"

func newAuthorPagesCommand(ctx *commandContext) *cobra.Command {
	var (
		output string
		upload bool
	)
	cmd := &cobra.Command{
		Use:   "author-pages [created-log]",
		Short: "Build Author: pages for newly created author items",
		Long: `Converts "Created author NAME (Q1)" lines into page blocks delimited by
{{-start-}} and {{-stop-}}, ready for a bulk page import. With --upload the
pages are also written to the works wiki directly.

Run this before "sitelinks --authors", which trims the same log.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			path := cfg.ImportLogPath(cfg.Import.CreatedLog)
			if len(args) == 1 {
				path = args[0]
			}
			lines, err := importlog.ReadLines(path)
			if err != nil {
				return err
			}
			entries := authorpages.Entries(lines)
			if len(entries) == 0 {
				return services.Wrap(services.ErrUsage, "author-pages", "read", fmt.Sprintf("no author entries in '%s'", path), nil)
			}
			target := cfg.ImportLogPath(output)
			if err := authorpages.WriteBlocks(target, entries); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d author page(s) to %s\n", len(entries), target)
			if !upload {
				return nil
			}

			runCtx := ctx.runContext(cmd)
			session, err := ctx.dialWorks(runCtx)
			if err != nil {
				return err
			}
			defer session.Logout()
			result, err := authorpages.Upload(runCtx, session, entries, authorPageSummary, ctx.loggerValue())
			if len(result.Failed) > 0 {
				titles := make([]string, 0, len(result.Failed))
				for title := range result.Failed {
					titles = append(titles, title)
				}
				sort.Strings(titles)
				rows := make([][]string, 0, len(titles))
				for _, title := range titles {
					rows = append(rows, []string{title, result.Failed[title].Error()})
				}
				fmt.Fprintln(out, renderTable(out, []string{"Page", "Error"}, rows, nil))
			}
			fmt.Fprintf(out, "Uploaded %d page(s), %d failed\n", len(result.Written), len(result.Failed))
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "author-pages.txt", "Page block file, relative to import.output_dir")
	cmd.Flags().BoolVar(&upload, "upload", false, "Also create the pages on the works wiki")
	return cmd
}
