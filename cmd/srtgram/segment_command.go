package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"srtgram/internal/config"
	"srtgram/internal/fileutil"
	"srtgram/internal/pipeline"
	"srtgram/internal/services"
	"srtgram/internal/subtitles"
)

var segmentFormats = []string{"json", "jsonl", "yaml", "table"}

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	var (
		format     string
		outputPath string
		protect    bool
		showStats  bool
	)

	cmd := &cobra.Command{
		Use:   "segment FILE",
		Short: "Split an SRT file into timestamped sentences",
		Long: `Parse an SRT file and print the sentences it contains, each stamped with the
start time of the cue where the sentence begins. No network access is needed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if !isSegmentFormat(format) {
				return services.Wrap(services.ErrValidation, "segment", "parse flags",
					fmt.Sprintf("unsupported format %q (expected %s)", format, strings.Join(segmentFormats, ", ")), nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if protect {
				cfg.Segmentation.AbbreviationMode = config.AbbreviationModeProtect
			}
			segmenter, err := pipeline.NewSegmenter(cfg, ctx.loggerFor(cmd))
			if err != nil {
				return err
			}
			blocks, err := subtitles.ReadSRTFile(args[0])
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return services.Wrap(services.ErrNotFound, "segment", "read subtitles", args[0], err)
				}
				return services.Wrap(services.ErrValidation, "segment", "parse subtitles", args[0], err)
			}
			result := segmenter.Segment(blocks)

			var buf bytes.Buffer
			if err := writeSentences(&buf, format, result.Sentences); err != nil {
				return err
			}
			if outputPath != "" {
				if err := fileutil.WriteFileAtomic(outputPath, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			} else if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}
			if showStats {
				fmt.Fprintf(cmd.ErrOrStderr(), "blocks=%d spans=%d sentences=%d discarded=%d fallbacks=%d\n",
					result.Stats.Blocks, result.Stats.Spans, result.Stats.Sentences, result.Stats.Discarded, result.Stats.Fallbacks)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: "+strings.Join(segmentFormats, ", "))
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&protect, "protect-abbreviations", false, "Do not split after abbreviations such as Dr. or e.g.")
	cmd.Flags().BoolVar(&showStats, "stats", false, "Print segmentation counters to stderr")
	return cmd
}

func isSegmentFormat(format string) bool {
	for _, f := range segmentFormats {
		if f == format {
			return true
		}
	}
	return false
}

func writeSentences(w io.Writer, format string, sentences []subtitles.Sentence) error {
	switch format {
	case "jsonl":
		return subtitles.WriteSentencesJSONL(w, sentences)
	case "yaml":
		if sentences == nil {
			sentences = []subtitles.Sentence{}
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(sentences); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "table":
		rows := make([][]string, 0, len(sentences))
		for i, s := range sentences {
			rows = append(rows, []string{strconv.Itoa(i + 1), s.Timestamp, s.Text})
		}
		_, err := fmt.Fprintln(w, renderTable([]string{"#", "Timestamp", "Sentence"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
		return err
	default:
		return subtitles.WriteSentencesJSON(w, sentences)
	}
}
