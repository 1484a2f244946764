package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"srtgram/internal/config"
	"srtgram/internal/store"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached sentence explanations",
	}
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	return cacheCmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached explanations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				removed, err := st.ClearExplanations(cmd.Context(), model)
				if err != nil {
					return err
				}
				if model != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached explanations for %s\n", removed, model)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached explanations\n", removed)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "Only clear explanations produced by this model")
	return cmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many explanations are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				count, err := st.ExplanationCount(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cached explanations: %d\n", count)
				fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", st.Path())
				return nil
			})
		},
	}
}
