package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"srtgram/internal/config"
	"srtgram/internal/pipeline"
	"srtgram/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		localFile  string
		youtubeURL string
		model      string
		limit      int
		noAnalysis bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Segment and explain a subtitle file or YouTube video",
		Long: `Run the full pipeline for one source: acquire subtitles, segment them into
sentences, explain each sentence with the LLM and render index.html.

Exactly one of --local-file or --youtube-url is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if noAnalysis {
					cfg.Analysis.Enabled = false
				}
				logger := ctx.loggerFor(cmd)
				progress := newProgressPrinter(cmd.ErrOrStderr())
				runner := pipeline.NewRunner(cfg, st,
					pipeline.WithLogger(logger),
					pipeline.WithProgress(progress.update),
				)
				res, err := runner.Run(cmd.Context(), pipeline.Request{
					LocalFile:  localFile,
					YouTubeURL: youtubeURL,
					Model:      model,
					Limit:      limit,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s completed\n", res.RunID)
				fmt.Fprintf(out, "  Title:      %s\n", res.Title)
				fmt.Fprintf(out, "  Sentences:  %d\n", res.Sentences)
				fmt.Fprintf(out, "  Analyzed:   %d (cached %d, failed %d)\n", res.Analysis.Total, res.Analysis.Cached, res.Analysis.Failed)
				fmt.Fprintf(out, "  Output:     %s\n", res.OutputDir)
				fmt.Fprintf(out, "Open %s in your browser.\n", res.ReportPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&localFile, "local-file", "l", "", "Local SRT file to process")
	cmd.Flags().StringVarP(&youtubeURL, "youtube-url", "y", "", "YouTube video URL to download captions from")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Override llm.model for this run")
	cmd.Flags().IntVar(&limit, "limit", 0, "Explain at most N sentences (0 uses analysis.limit)")
	cmd.Flags().BoolVar(&noAnalysis, "no-analysis", false, "Skip LLM explanations and render sentences only")
	cmd.MarkFlagsMutuallyExclusive("local-file", "youtube-url")
	return cmd
}
