package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"srtgram/internal/pipeline"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "render DIR",
		Short: "Rebuild index.html from a run directory's analysis.jsonl",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := pipeline.RenderDir(args[0], cfg.Analysis.TargetLanguage)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s\n", path)
			return nil
		},
	}
}
