package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bahaibot/internal/scrape"
	"bahaibot/internal/services"
)

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "scrape <start-id> <end-id>",
		Short: "Download slideshow images and captions from news stories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.Atoi(args[0])
			if err != nil {
				return services.Wrap(services.ErrUsage, "scrape", "parse range", fmt.Sprintf("invalid start id %q", args[0]), nil)
			}
			end, err := strconv.Atoi(args[1])
			if err != nil {
				return services.Wrap(services.ErrUsage, "scrape", "parse range", fmt.Sprintf("invalid end id %q", args[1]), nil)
			}

			scraper := scrape.New(ctx.configValue(), ctx.loggerValue())
			if outputDir != "" {
				scraper.OutputDir = outputDir
			}
			summary, runErr := scraper.Run(ctx.runContext(cmd), start, end)

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(summary.Stories))
			for _, story := range summary.Stories {
				status := "ok"
				switch {
				case !story.Exists:
					status = "missing"
				case story.Err != nil:
					status = story.Err.Error()
				}
				rows = append(rows, []string{
					strconv.Itoa(story.ID),
					strconv.Itoa(len(story.Saved)),
					strconv.Itoa(len(story.Skipped)),
					strconv.Itoa(imageFailures(story)),
					status,
				})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(out, []string{"Story", "Saved", "Skipped", "Image errors", "Status"}, rows,
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft}))
			}
			fmt.Fprintf(out, "Saved %d slide(s) from %d stor(ies) into %s\n", summary.Images(), len(summary.Stories), scraper.OutputDir)
			return runErr
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default scrape.output_dir)")
	return cmd
}

func imageFailures(story scrape.StoryResult) int {
	n := 0
	for _, saved := range story.Saved {
		if saved.ImageErr != nil {
			n++
		}
	}
	return n
}
