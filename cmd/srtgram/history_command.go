package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"srtgram/internal/config"
	"srtgram/internal/store"
	"srtgram/internal/textutil"
)

type runView struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	SourceKind    string `json:"source_kind"`
	Source        string `json:"source"`
	Title         string `json:"title,omitempty"`
	Model         string `json:"model,omitempty"`
	SentenceCount int    `json:"sentence_count"`
	AnalyzedCount int    `json:"analyzed_count"`
	OutputDir     string `json:"output_dir"`
	Error         string `json:"error,omitempty"`
	CreatedAt     string `json:"created_at"`
	DurationMS    int64  `json:"duration_ms"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				runs, err := st.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					views := make([]runView, 0, len(runs))
					for _, run := range runs {
						views = append(views, toRunView(run))
					}
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded yet.")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					title := textutil.Ternary(run.Title != "", run.Title, run.Source)
					rows = append(rows, []string{
						shortID(run.ID),
						string(run.Status),
						string(run.SourceKind),
						textutil.Truncate(title, 40),
						strconv.Itoa(run.SentenceCount),
						strconv.Itoa(run.AnalyzedCount),
						run.CreatedAt.Local().Format("2006-01-02 15:04"),
						formatRunDuration(run.Duration()),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Status", "Source", "Title", "Sentences", "Analyzed", "Created", "Took"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight},
				))
				for _, run := range runs {
					if run.Status == store.StatusFailed && run.Error != "" {
						fmt.Fprintf(out, "%s: %s\n", shortID(run.ID), textutil.Truncate(run.Error, 160))
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func toRunView(run store.Run) runView {
	return runView{
		ID:            run.ID,
		Status:        string(run.Status),
		SourceKind:    string(run.SourceKind),
		Source:        run.Source,
		Title:         run.Title,
		Model:         run.Model,
		SentenceCount: run.SentenceCount,
		AnalyzedCount: run.AnalyzedCount,
		OutputDir:     run.OutputDir,
		Error:         run.Error,
		CreatedAt:     run.CreatedAt.UTC().Format(time.RFC3339),
		DurationMS:    run.Duration().Milliseconds(),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRunDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
