package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bahaibot/internal/importlog"
	"bahaibot/internal/sitelinks"
)

func newSitelinksCommand(ctx *commandContext) *cobra.Command {
	var (
		authors bool
		titles  bool
		keep    bool
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "sitelinks [audit-log]",
		Short: "Link created items to their pages on the works wiki",
		Long: `Reads "Created ..." lines from an audit log and sets a sitelink for each
item. Linked lines are removed from the log so an interrupted run can be
resumed; failed and unrecognized lines stay.

With --authors (the default) lines look like "Created author NAME (Q1)" and
link to Author:NAME. With --titles lines look like "Created TITLE (Q1)" and
link to the page TITLE.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			mode := sitelinks.Authors
			path := cfg.ImportLogPath(cfg.Import.CreatedLog)
			if titles {
				mode = sitelinks.Titles
				path = cfg.ImportLogPath(cfg.Import.BooksLog)
			}
			if len(args) == 1 {
				path = args[0]
			}
			auditLog, err := importlog.Open(path)
			if err != nil {
				return err
			}

			runCtx := ctx.runContext(cmd)
			st, release, err := ctx.openStore(runCtx, dryRun)
			if err != nil {
				return err
			}
			defer release()

			linker := &sitelinks.Linker{
				Store:  st,
				Log:    auditLog,
				Site:   cfg.Works.SitelinkSite,
				Logger: ctx.loggerValue(),
				Keep:   keep || dryRun,
			}
			result, runErr := linker.Run(runCtx, mode)
			out := cmd.OutOrStdout()
			if len(result.Failed) > 0 {
				rows := make([][]string, 0, len(result.Failed))
				for _, f := range result.Failed {
					rows = append(rows, []string{f.Entry.Label, f.Entry.ID, f.Err.Error()})
				}
				fmt.Fprintln(out, renderTable(out, []string{"Label", "ID", "Error"}, rows, nil))
			}
			fmt.Fprintf(out, "Linked %d, failed %d, unparsed %d (%s)\n", len(result.Linked), len(result.Failed), result.Unparsed, auditLog.Path())
			return runErr
		},
	}
	cmd.Flags().BoolVar(&authors, "authors", false, "Link \"Created author\" lines to Author: pages (default)")
	cmd.Flags().BoolVar(&titles, "titles", false, "Link \"Created TITLE\" lines to pages of the same name")
	cmd.Flags().BoolVar(&keep, "keep", false, "Leave the audit log unchanged")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Use a throwaway in-memory store and keep the log")
	cmd.MarkFlagsMutuallyExclusive("authors", "titles")
	return cmd
}
