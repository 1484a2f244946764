package pipeline

import (
	"log/slog"

	"srtgram/internal/config"
	"srtgram/internal/subtitles"
)

// NewSegmenter builds a segmenter from the segmentation section of cfg.
// Protect mode without a configured list uses the built-in abbreviations.
func NewSegmenter(cfg *config.Config, logger *slog.Logger) (*subtitles.Segmenter, error) {
	opts := []subtitles.Option{subtitles.WithLogger(logger)}
	if cfg == nil {
		return subtitles.NewSegmenter(opts...), nil
	}
	attributor, err := subtitles.NewAttributor(cfg.Segmentation.Attribution)
	if err != nil {
		return nil, err
	}
	opts = append(opts, subtitles.WithAttributor(attributor))
	if cfg.ProtectAbbreviations() {
		tokens := cfg.Segmentation.ProtectedAbbreviations
		if len(tokens) == 0 {
			tokens = subtitles.DefaultAbbreviations
		}
		opts = append(opts, subtitles.WithAbbreviations(subtitles.NewAbbreviations(tokens)))
	}
	return subtitles.NewSegmenter(opts...), nil
}
