package subtitles

import (
	"log/slog"
	"strings"

	"srtgram/internal/logging"
)

// Sentence is one finished unit of speech with the time its first word began.
type Sentence struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Text      string `json:"text" yaml:"text"`
}

// Stats summarizes one segmentation pass.
type Stats struct {
	Blocks    int `json:"blocks"`
	Spans     int `json:"spans"`
	Sentences int `json:"sentences"`
	Discarded int `json:"discarded"`
	Fallbacks int `json:"fallbacks"`
}

// Result is the output of Segment.
type Result struct {
	Sentences []Sentence
	Stats     Stats
}

// Segmenter turns ordered subtitle blocks into timestamped sentences. It holds
// no per-run state and is safe for concurrent use.
type Segmenter struct {
	abbrevs    Abbreviations
	attributor Attributor
	logger     *slog.Logger
}

// Option customizes a Segmenter.
type Option func(*Segmenter)

// WithAbbreviations enables protect mode with the given token set.
func WithAbbreviations(abbrevs Abbreviations) Option {
	return func(s *Segmenter) {
		s.abbrevs = abbrevs
	}
}

// WithAttributor overrides the attribution strategy.
func WithAttributor(attributor Attributor) Option {
	return func(s *Segmenter) {
		if attributor != nil {
			s.attributor = attributor
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Segmenter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSegmenter constructs a Segmenter. Without options it splits on every
// terminator and attributes sentences with a linear scan.
func NewSegmenter(opts ...Option) *Segmenter {
	s := &Segmenter{
		attributor: LinearAttributor{},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = logging.NewComponentLogger(s.logger, "segmenter")
	return s
}

// ProtectMode reports whether abbreviation protection is active.
func (s *Segmenter) ProtectMode() bool {
	return s.abbrevs.Len() > 0
}

// Closes reports whether text ends the span it is appended to.
func (s *Segmenter) Closes(text string) bool {
	trimmed := strings.TrimSpace(text)
	if !EndsWithTerminator(trimmed) {
		return false
	}
	return !s.abbrevs.Protects(trimmed, len(trimmed)-1)
}

// Spans folds blocks into closed spans plus any unterminated tail.
func (s *Segmenter) Spans(blocks []Block) []Span {
	return Accumulate(blocks, s.Closes)
}

// Segment runs accumulation and splitting over blocks.
func (s *Segmenter) Segment(blocks []Block) Result {
	result := Result{Stats: Stats{Blocks: len(blocks)}}
	for _, span := range s.Spans(blocks) {
		result.Stats.Spans++
		result.Sentences = append(result.Sentences, s.split(span, &result.Stats)...)
	}
	result.Stats.Sentences = len(result.Sentences)
	s.logger.Debug("segmentation complete",
		logging.Int("blocks", result.Stats.Blocks),
		logging.Int("spans", result.Stats.Spans),
		logging.Int("sentences", result.Stats.Sentences),
		logging.Int("discarded", result.Stats.Discarded),
		logging.Int("fallbacks", result.Stats.Fallbacks),
		logging.Bool("protect_abbreviations", s.ProtectMode()),
	)
	return result
}

// SplitSpan splits one span into sentences. An empty span yields nothing.
func (s *Segmenter) SplitSpan(span Span) []Sentence {
	var stats Stats
	return s.split(span, &stats)
}

func (s *Segmenter) split(span Span, stats *Stats) []Sentence {
	if span.Empty() {
		return nil
	}
	joined := span.Joined()
	ranges := span.Ranges()
	var sentences []Sentence
	for _, cand := range splitInclusive(joined, s.abbrevs) {
		text := strings.TrimSpace(cand.text)
		if text == "" {
			stats.Discarded++
			continue
		}
		idx, ok := s.attributor.Locate(ranges, cand.offset)
		if !ok {
			stats.Fallbacks++
			idx = 0
			s.logger.Debug("sentence offset outside every block; using span start",
				logging.Int("offset", cand.offset),
				logging.Int("parts", len(span.Parts)),
				logging.String("timestamp", span.Parts[0].Start),
				logging.String("sentence", text),
			)
		}
		sentences = append(sentences, Sentence{Timestamp: span.Parts[idx].Start, Text: text})
	}
	return sentences
}

// SegmentSRT parses data and segments it. Parse failures return no sentences.
func (s *Segmenter) SegmentSRT(data string) (Result, error) {
	blocks, err := ParseSRT(data)
	if err != nil {
		return Result{}, err
	}
	return s.Segment(blocks), nil
}
