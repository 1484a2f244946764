package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"srtgram/internal/preflight"
	"srtgram/internal/services"
	"srtgram/internal/textutil"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, yt-dlp and the LLM endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			configLabel := textutil.Ternary(ctx.configExists, ctx.configPath, ctx.configPath+" (not found, using defaults)")
			lines = append(lines,
				renderStatusLine("Config", statusInfo, configLabel, colorize),
				renderStatusLine("Model", statusInfo, cfg.LLM.Model, colorize),
				renderStatusLine("Analysis", statusInfo, textutil.Ternary(cfg.Analysis.Enabled, "enabled", "disabled"), colorize),
				renderStatusLine("Abbreviations", statusInfo, cfg.Segmentation.AbbreviationMode, colorize),
				"",
			)
			lines = append(lines, renderSectionHeader("Checks", colorize)...)

			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = textutil.Ternary(result.Optional, statusWarn, statusError)
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if failed := preflight.Failed(results); len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, f := range failed {
					names = append(names, f.Name)
				}
				return services.Wrap(services.ErrConfiguration, "doctor", "preflight", strings.Join(names, ", ")+" failed", nil)
			}
			return nil
		},
	}
}
