package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"bahaibot/internal/importer"
	"bahaibot/internal/importlog"
	"bahaibot/internal/logging"
)

// importFlags are shared by the books, articles, and persons commands.
type importFlags struct {
	failFast   bool
	bestEffort bool
	dryRun     bool
}

func (f *importFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "Abort the run at the first failed record")
	cmd.Flags().BoolVar(&f.bestEffort, "best-effort", false, "Log failed records and continue")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Write to a throwaway in-memory store")
	cmd.MarkFlagsMutuallyExclusive("fail-fast", "best-effort")
}

// mode resolves the fail-fast policy, falling back to the workflow default.
func (f *importFlags) mode(defaultFailFast bool) bool {
	switch {
	case f.failFast:
		return true
	case f.bestEffort:
		return false
	default:
		return defaultFailFast
	}
}

func newBooksCommand(ctx *commandContext) *cobra.Command {
	var flags importFlags
	cmd := &cobra.Command{
		Use:   "books <file.csv>",
		Short: "Create book items from a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := importer.ReadCSV(args[0])
			if err != nil {
				return err
			}
			cfg := ctx.configValue()
			return runImport(cmd, ctx, importer.NewBooks(cfg), records, flags.dryRun,
				flags.mode(cfg.Import.BooksFailFast), cfg.ImportLogPath(cfg.Import.BooksLog))
		},
	}
	flags.register(cmd)
	return cmd
}

func newArticlesCommand(ctx *commandContext) *cobra.Command {
	var flags importFlags
	cmd := &cobra.Command{
		Use:   "articles <issue-id> <file.json>",
		Short: "Create article items for one magazine issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			wf, err := importer.NewArticles(cfg, args[0])
			if err != nil {
				return err
			}
			records, err := importer.ReadArticles(args[1])
			if err != nil {
				return err
			}
			return runImport(cmd, ctx, wf, records, flags.dryRun,
				flags.mode(cfg.Import.ArticlesFailFast), cfg.ImportLogPath(cfg.Import.ArticlesLog))
		},
	}
	flags.register(cmd)
	return cmd
}

func newPersonsCommand(ctx *commandContext) *cobra.Command {
	var flags importFlags
	cmd := &cobra.Command{
		Use:   "persons <file.csv>",
		Short: "Add dates, images, and positions to existing person items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := importer.ReadCSV(args[0])
			if err != nil {
				return err
			}
			cfg := ctx.configValue()
			return runImport(cmd, ctx, importer.NewPersons(cfg), records, flags.dryRun,
				flags.mode(cfg.Import.PersonsFailFast), cfg.ImportLogPath(cfg.Import.PersonsLog))
		},
	}
	flags.register(cmd)
	return cmd
}

func runImport(cmd *cobra.Command, ctx *commandContext, wf importer.Workflow, records []importer.Record, dryRun, failFast bool, logPath string) error {
	cfg := ctx.configValue()
	logger := ctx.loggerValue()
	runCtx := ctx.runContext(cmd)

	auditLog, err := importlog.Open(logPath)
	if err != nil {
		return err
	}
	createdLog, err := importlog.Open(cfg.ImportLogPath(cfg.Import.CreatedLog))
	if err != nil {
		return err
	}

	st, release, err := ctx.openStore(runCtx, dryRun)
	if err != nil {
		return err
	}
	defer release()

	runner := &importer.Runner{
		Store:    st,
		Resolver: importer.NewResolver(st, createdLog, logger),
		Log:      auditLog,
		Logger:   logger,
		FailFast: failFast,
	}
	logging.WithContext(runCtx, logger).Info("import started",
		logging.Int("records", len(records)),
		logging.Bool("fail_fast", failFast),
		logging.Bool("dry_run", dryRun),
		logging.String("audit_log", auditLog.Path()),
	)

	summary, runErr := runner.Run(runCtx, wf, records)
	printImportSummary(cmd.OutOrStdout(), summary)
	if runErr != nil {
		return runErr
	}
	if summary.Failed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d record(s) failed; see %s\n", summary.Failed, auditLog.Path())
	}
	return nil
}

func printImportSummary(out io.Writer, summary importer.Summary) {
	if len(summary.Written) > 0 {
		rows := make([][]string, 0, len(summary.Written))
		for _, w := range summary.Written {
			rows = append(rows, []string{strconv.Itoa(w.Row), w.Label, w.ID})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Row", "Record", "ID"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
	}
	if len(summary.Created) > 0 {
		rows := make([][]string, 0, len(summary.Created))
		for _, c := range summary.Created {
			rows = append(rows, []string{strconv.Itoa(c.Row), c.Kind, c.Label, c.ID})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Row", "Created", "Label", "ID"}, rows, []columnAlignment{alignRight}))
	}
	if len(summary.Failures) > 0 {
		rows := make([][]string, 0, len(summary.Failures))
		for _, f := range summary.Failures {
			rows = append(rows, []string{strconv.Itoa(f.Row), f.Label, f.Kind, f.Err.Error()})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Row", "Record", "Kind", "Error"}, rows, []columnAlignment{alignRight}))
	}
	status := "completed"
	if summary.Aborted {
		status = "aborted"
	}
	fmt.Fprintf(out, "%s %s: %d total, %d written, %d skipped, %d failed\n",
		summary.Workflow, status, summary.Total, summary.Succeeded, summary.Skipped, summary.Failed)
}

