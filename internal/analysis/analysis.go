package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"srtgram/internal/logging"
	"srtgram/internal/services/llm"
	"srtgram/internal/store"
	"srtgram/internal/subtitles"
)

// FailurePrefix starts the explanation of a record whose LLM call failed.
const FailurePrefix = "Failed to get explanation: "

const defaultWorkers = 4

// Explainer produces an explanation for one sentence.
type Explainer interface {
	Explain(ctx context.Context, sentence string) (llm.Explanation, error)
	Model() string
}

// Cache stores explanations keyed by model and sentence text.
type Cache interface {
	LookupExplanation(ctx context.Context, model, sentence string) (store.CachedExplanation, bool, error)
	SaveExplanation(ctx context.Context, model, sentence, translation, explanation string) error
}

// Stats counts how each analyzed sentence was answered.
type Stats struct {
	Total     int
	Cached    int
	Explained int
	Failed    int
}

// Result holds records in input order.
type Result struct {
	Records []Record
	Stats   Stats
}

// ProgressFunc is called after each sentence completes.
type ProgressFunc func(done, total int)

// Analyzer explains sentences with a bounded worker pool.
type Analyzer struct {
	explainer Explainer
	cache     Cache
	workers   int
	progress  ProgressFunc
	logger    *slog.Logger
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithCache enables the explanation cache.
func WithCache(cache Cache) Option {
	return func(a *Analyzer) {
		a.cache = cache
	}
}

// WithWorkers bounds concurrent LLM calls. Values below one are ignored.
func WithWorkers(workers int) Option {
	return func(a *Analyzer) {
		if workers > 0 {
			a.workers = workers
		}
	}
}

// WithProgress registers a completion callback. It may be called from several goroutines.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Analyzer) {
		a.progress = fn
	}
}

// WithLogger sets the analyzer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer constructs an Analyzer around explainer.
func NewAnalyzer(explainer Explainer, opts ...Option) *Analyzer {
	a := &Analyzer{
		explainer: explainer,
		workers:   defaultWorkers,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.logger = logging.NewComponentLogger(a.logger, "analysis")
	return a
}

// Analyze explains the first limit sentences, or all of them when limit is
// zero or exceeds the input. LLM failures are folded into the record; only
// context cancellation aborts.
func (a *Analyzer) Analyze(ctx context.Context, sentences []subtitles.Sentence, limit int) (Result, error) {
	if a.explainer == nil {
		return Result{}, errors.New("analysis: explainer required")
	}
	if limit < 0 {
		return Result{}, fmt.Errorf("analysis: limit must be >= 0, got %d", limit)
	}
	if limit > 0 && limit < len(sentences) {
		sentences = sentences[:limit]
	}
	total := len(sentences)
	records := make([]Record, total)
	outcomes := make([]outcome, total)
	var done atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.workers)
	for i, sentence := range sentences {
		group.Go(func() error {
			record, result, err := a.explainOne(groupCtx, sentence)
			if err != nil {
				return err
			}
			records[i] = record
			outcomes[i] = result
			if a.progress != nil {
				a.progress(int(done.Add(1)), total)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	stats := Stats{Total: total}
	for _, o := range outcomes {
		switch o {
		case outcomeCached:
			stats.Cached++
		case outcomeExplained:
			stats.Explained++
		case outcomeFailed:
			stats.Failed++
		}
	}
	a.logger.Info("analysis complete",
		logging.String("model", a.explainer.Model()),
		logging.Int("sentences", stats.Total),
		logging.Int("cached", stats.Cached),
		logging.Int("explained", stats.Explained),
		logging.Int("failed", stats.Failed),
	)
	return Result{Records: records, Stats: stats}, nil
}

type outcome int

const (
	outcomeExplained outcome = iota
	outcomeCached
	outcomeFailed
)

func (a *Analyzer) explainOne(ctx context.Context, sentence subtitles.Sentence) (Record, outcome, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, outcomeFailed, err
	}
	record := Record{Timestamp: sentence.Timestamp, OriginalSentence: sentence.Text}
	model := a.explainer.Model()

	if a.cache != nil {
		cached, ok, err := a.cache.LookupExplanation(ctx, model, sentence.Text)
		if err != nil {
			a.logger.Warn("explanation cache lookup failed",
				logging.String("sentence", sentence.Text),
				logging.Error(err),
			)
		} else if ok {
			record.Translation = cached.Translation
			record.Explanation = cached.Explanation
			return record, outcomeCached, nil
		}
	}

	explanation, err := a.explainer.Explain(ctx, sentence.Text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Record{}, outcomeFailed, ctxErr
		}
		logging.WarnWithContext(a.logger, "sentence explanation failed", "llm_explain_failed",
			logging.String("timestamp", sentence.Timestamp),
			logging.String("sentence", sentence.Text),
			logging.Error(err),
		)
		record.Explanation = FailurePrefix + err.Error()
		return record, outcomeFailed, nil
	}
	record.Translation = explanation.Translation
	record.Explanation = explanation.Explanation

	if a.cache != nil {
		if err := a.cache.SaveExplanation(ctx, model, sentence.Text, record.Translation, record.Explanation); err != nil {
			a.logger.Warn("explanation cache save failed",
				logging.String("sentence", sentence.Text),
				logging.Error(err),
			)
		}
	}
	a.logger.Debug("sentence explained",
		logging.String("timestamp", sentence.Timestamp),
		logging.Int("explanation_chars", len(record.Explanation)),
	)
	return record, outcomeExplained, nil
}

// Placeholders returns records without explanations, used when analysis is disabled.
func Placeholders(sentences []subtitles.Sentence, limit int) []Record {
	if limit > 0 && limit < len(sentences) {
		sentences = sentences[:limit]
	}
	records := make([]Record, len(sentences))
	for i, sentence := range sentences {
		records[i] = Record{Timestamp: sentence.Timestamp, OriginalSentence: strings.TrimSpace(sentence.Text)}
	}
	return records
}
