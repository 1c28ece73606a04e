package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bahaibot/internal/fileutil"
	"bahaibot/internal/quotes"
)

func newQuotesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "Search the library for quotations and turn them into {{q}} templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newQuotesSearchCommand(ctx))
	cmd.AddCommand(newQuotesProcessCommand(ctx))
	return cmd
}

func newQuotesSearchCommand(ctx *commandContext) *cobra.Command {
	var keywordsFile, outputDir string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Save matching paragraphs for each keyword as JSON files",
		Long: `Runs the query once per keyword from the keyword file and writes the hits
of each keyword to QUERY_KEYWORD.txt in the output directory. Requests are
spaced by quotes.batch_delay_seconds and quotes.keyword_delay_seconds.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if keywordsFile == "" {
				keywordsFile = cfg.Quotes.KeywordsFile
			}
			keywords, err := quotes.LoadKeywords(keywordsFile)
			if err != nil {
				return err
			}
			searcher := quotes.New(cfg, ctx.loggerValue())
			if outputDir != "" {
				searcher.OutputDir = outputDir
			}
			summary, runErr := searcher.Run(ctx.runContext(cmd), strings.Join(args, " "), keywords)

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(summary.Keywords))
			for _, k := range summary.Keywords {
				status := "ok"
				switch {
				case k.Err != nil:
					status = k.Err.Error()
				case k.Quotes == 0:
					status = "no hits"
				}
				rows = append(rows, []string{k.Keyword, strconv.Itoa(k.Quotes), status})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(out, []string{"Keyword", "Quotes", "Status"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft}))
			}
			fmt.Fprintf(out, "Saved %d quote(s) for %q into %s, %d keyword(s) failed\n",
				summary.Saved(), summary.Query, searcher.OutputDir, len(summary.Failed()))
			return runErr
		},
	}
	cmd.Flags().StringVarP(&keywordsFile, "keywords", "k", "", "Keyword file (default quotes.keywords_file)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default quotes.output_dir)")
	return cmd
}

func newQuotesProcessCommand(ctx *commandContext) *cobra.Command {
	var inputDir, output string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Group saved quotes by title into {{q}} templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if inputDir == "" {
				inputDir = cfg.Quotes.OutputDir
			}
			sections, report, err := quotes.Group(inputDir, quotes.Abbreviations)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(report.Skips) > 0 {
				rows := make([][]string, 0, len(report.Skips))
				for _, skip := range report.Skips {
					rows = append(rows, []string{skip.File, skip.Reason})
				}
				fmt.Fprintln(out, renderTable(out, []string{"Skipped file", "Reason"}, rows, nil))
			}
			if report.Files == 0 {
				fmt.Fprintf(out, "No quote files in %s\n", inputDir)
				return nil
			}
			target := cfg.ImportLogPath(output)
			if _, err := fileutil.WriteFile(target, []byte(quotes.Render(sections))); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}
			fmt.Fprintf(out, "Wrote %d quote(s) in %d section(s) to %s\n", report.Quotes, len(sections), target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory of search results (default quotes.output_dir)")
	cmd.Flags().StringVarP(&output, "output", "o", "quotes.txt", "Template file, relative to import.output_dir")
	return cmd
}
