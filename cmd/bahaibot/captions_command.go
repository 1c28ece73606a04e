package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bahaibot/internal/captions"
	"bahaibot/internal/llm"
	"bahaibot/internal/retry"
	"bahaibot/internal/services"
)

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	var (
		category   string
		jsonMode   bool
		promptName string
		namespace  string
		outputDir  string
	)
	cmd := &cobra.Command{
		Use:   "captions",
		Short: "Rewrite or extract pages in a category with the completion API",
		Long: `Sends the wikitext of every page in a category to the completion API.

By default the reply replaces the page text when it differs. --prompt selects
the instruction: "captions" reformats image description pages around {{cs}},
"proofread" fixes OCR and transliteration errors.

With --json the reply is parsed as a JSON object of biographical fields and
written to one file per page under llm.output_dir; the page is not edited.`,
		Example: `  bahaibot captions --category "Baha'i News No 331" --namespace 6
  bahaibot captions --category "Hands of the Cause" --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger := ctx.loggerValue()
			runCtx := ctx.runContext(cmd)

			client := llm.NewClient(llm.FromConfig(cfg.LLM), llm.WithRetry(retry.FromConfig(cfg.Retry)))
			session, err := ctx.dialWorks(runCtx)
			if err != nil {
				return err
			}
			defer session.Logout()

			var result captions.Result
			if jsonMode {
				dir := cfg.LLM.OutputDir
				if outputDir != "" {
					dir = outputDir
				}
				extractor := &captions.Extractor{
					Wiki:      session,
					LLM:       client,
					Prompt:    captions.BiographyPrompt,
					OutputDir: dir,
					Namespace: namespace,
					Logger:    logger,
				}
				result, err = extractor.Run(runCtx, category)
			} else {
				prompt, ok := captions.RewritePrompt(promptName)
				if !ok {
					return services.Wrap(services.ErrUsage, "captions", "select prompt",
						fmt.Sprintf("unknown prompt %q (choose %s)", promptName, strings.Join(captions.RewritePromptNames(), ", ")), nil)
				}
				rewriter := &captions.Rewriter{
					Wiki:      session,
					LLM:       client,
					Prompt:    prompt,
					Summary:   cfg.Works.EditSummary,
					Namespace: namespace,
					Logger:    logger,
				}
				result, err = rewriter.Run(runCtx, category)
			}

			printCaptionResult(cmd, result)
			return err
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Category whose pages are processed")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Extract JSON fields to files instead of editing pages")
	cmd.Flags().StringVar(&promptName, "prompt", "captions", "Rewrite instruction: captions or proofread")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Restrict to a namespace number (6 for files)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "JSON output directory (default llm.output_dir)")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func printCaptionResult(cmd *cobra.Command, result captions.Result) {
	out := cmd.OutOrStdout()
	if len(result.Pages) == 0 {
		fmt.Fprintf(out, "No pages found in %s\n", result.Category)
		return
	}
	rows := make([][]string, 0, len(result.Pages))
	for _, p := range result.Pages {
		detail := p.Path
		if p.Err != nil {
			detail = p.Err.Error()
		}
		rows = append(rows, []string{p.Title, string(p.Outcome), detail})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Page", "Outcome", "Detail"}, rows, nil))
	fmt.Fprintf(out, "%d page(s): %d edited, %d saved, %d unchanged, %d empty, %d failed\n",
		len(result.Pages),
		result.Count(captions.OutcomeEdited),
		result.Count(captions.OutcomeSaved),
		result.Count(captions.OutcomeUnchanged),
		result.Count(captions.OutcomeEmpty),
		result.Count(captions.OutcomeFailed),
	)
}
