package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bahaibot/internal/importlog"
	"bahaibot/internal/volumes"
)

func newVolumesCommand(ctx *commandContext) *cobra.Command {
	var (
		req     volumes.Request
		logName string
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "volumes",
		Short: "Create volume and issue items for a periodical",
		Example: `  bahaibot volumes --title "World Order" --volumes 3 --issues 12
  bahaibot volumes --title "baha'i news" --title-case --volumes 10 --issues 4 --start 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			runCtx := ctx.runContext(cmd)
			auditLog, err := importlog.Open(cfg.ImportLogPath(logName))
			if err != nil {
				return err
			}
			st, release, err := ctx.openStore(runCtx, dryRun)
			if err != nil {
				return err
			}
			defer release()

			result, runErr := volumes.NewCreator(cfg, st, auditLog, ctx.loggerValue()).Run(runCtx, req)
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(result.Volumes)+len(result.Issues))
			for _, e := range result.Volumes {
				rows = append(rows, []string{"volume", e.Label, e.ID})
			}
			for _, e := range result.Issues {
				rows = append(rows, []string{"issue", e.Label, e.ID})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(out, []string{"Kind", "Label", "ID"}, rows, nil))
			}
			for _, f := range result.SitelinkFailures {
				fmt.Fprintf(out, "Sitelink failed for %s (%s): %v\n", f.Page, f.Issue.ID, f.Err)
			}
			fmt.Fprintf(out, "Created %d volume(s) and %d issue(s); audit log %s\n", len(result.Volumes), len(result.Issues), auditLog.Path())
			return runErr
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "Periodical title")
	cmd.Flags().IntVar(&req.Volumes, "volumes", 0, "Last volume number to create")
	cmd.Flags().IntVar(&req.Issues, "issues", 0, "Issues per volume")
	cmd.Flags().IntVar(&req.Start, "start", 1, "First volume number to create")
	cmd.Flags().BoolVar(&req.TitleCase, "title-case", false, "Title-case the periodical name")
	cmd.Flags().StringVar(&logName, "log", "created-volumes.txt", "Audit log, relative to import.output_dir")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write to a throwaway in-memory store")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
