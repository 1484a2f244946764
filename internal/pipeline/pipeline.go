package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"srtgram/internal/analysis"
	"srtgram/internal/config"
	"srtgram/internal/fileutil"
	"srtgram/internal/logging"
	"srtgram/internal/report"
	"srtgram/internal/services"
	"srtgram/internal/services/llm"
	"srtgram/internal/services/ytdlp"
	"srtgram/internal/store"
	"srtgram/internal/subtitles"
)

// SentencesFileName is the segmentation output inside a run directory.
const SentencesFileName = "sentences.json"

// Stage names attached to logs and wrapped errors.
const (
	StageAcquire  = "acquire"
	StageSegment  = "segment"
	StageAnalyze  = "analyze"
	StageRender   = "render"
	stageSetup    = "setup"
	stageFinalize = "finalize"
)

// Request selects one subtitle source.
type Request struct {
	LocalFile  string
	YouTubeURL string
	// Model overrides llm.model for this run.
	Model string
	// Limit caps analyzed sentences; zero uses analysis.limit from config.
	Limit int
}

// Result describes a completed run.
type Result struct {
	RunID        string
	OutputDir    string
	Title        string
	ReportPath   string
	Sentences    int
	Segmentation subtitles.Stats
	Analysis     analysis.Stats
}

// ExplainerFactory builds the LLM client for a run.
type ExplainerFactory func(cfg config.LLMConfig) analysis.Explainer

// Runner executes the end-to-end pipeline for one source at a time.
type Runner struct {
	cfg          *config.Config
	store        *store.Store
	ytdlp        *ytdlp.Client
	newExplainer ExplainerFactory
	progress     analysis.ProgressFunc
	logger       *slog.Logger
	now          func() time.Time
	newID        func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithYTDLP replaces the yt-dlp client.
func WithYTDLP(client *ytdlp.Client) Option {
	return func(r *Runner) {
		if client != nil {
			r.ytdlp = client
		}
	}
}

// WithExplainerFactory replaces how the LLM client is constructed.
func WithExplainerFactory(factory ExplainerFactory) Option {
	return func(r *Runner) {
		if factory != nil {
			r.newExplainer = factory
		}
	}
}

// WithLLMOptions passes options to the default LLM client.
func WithLLMOptions(opts ...llm.Option) Option {
	return func(r *Runner) {
		r.newExplainer = llmFactory(opts...)
	}
}

// WithProgress reports explained sentences as the analysis stage advances.
func WithProgress(fn analysis.ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithClock overrides the time source used for metadata.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner constructs a Runner. The store records run history and caches explanations.
func NewRunner(cfg *config.Config, st *store.Store, opts ...Option) *Runner {
	r := &Runner{
		cfg:          cfg,
		store:        st,
		newExplainer: llmFactory(),
		logger:       logging.NewNop(),
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.ytdlp == nil && cfg != nil {
		r.ytdlp = ytdlp.NewClient(ytdlp.Config{
			Binary:         cfg.YTDLP.Binary,
			SubLang:        cfg.YTDLP.SubLang,
			TimeoutSeconds: cfg.YTDLP.TimeoutSeconds,
		}, ytdlp.WithLogger(r.logger))
	}
	r.logger = logging.NewComponentLogger(r.logger, "pipeline")
	return r
}

func llmFactory(opts ...llm.Option) ExplainerFactory {
	return func(cfg config.LLMConfig) analysis.Explainer {
		return llm.NewClient(llm.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			Referer:        cfg.Referer,
			Title:          cfg.Title,
			TimeoutSeconds: cfg.TimeoutSeconds,
			TargetLanguage: cfg.TargetLanguage,
		}, opts...)
	}
}

// Run acquires subtitles, segments them, explains sentences and writes the
// report. The run is recorded in the store whether it succeeds or fails.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if r.cfg == nil || r.store == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageSetup, "init runner", "config and store are required", nil)
	}
	src, err := resolveSource(req)
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, services.Wrap(services.ErrValidation, stageSetup, "validate request", fmt.Sprintf("limit must be >= 0, got %d", req.Limit), nil)
	}
	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageSetup, "ensure directories", "", err)
	}

	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrBusy, stageSetup, "acquire run lock", r.cfg.LockPath(), nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", logging.String("lock", r.cfg.LockPath()), logging.Error(err))
		}
	}()

	outputDir, err := fileutil.CreateUniqueDir(r.cfg.Paths.OutputDir, src.baseName)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageSetup, "create output directory", "", err)
	}

	llmCfg := r.cfg.GetLLM(req.Model)
	run := &store.Run{
		ID:         r.newID(),
		Source:     src.source,
		SourceKind: src.kind,
		Title:      src.baseName,
		OutputDir:  outputDir,
		Model:      llmCfg.Model,
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	ctx = services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source", src.source),
		logging.String("source_kind", string(src.kind)),
		logging.String("output_dir", outputDir),
	)

	res, err := r.execute(ctx, src, run, outputDir, llmCfg, req.Limit)
	if err != nil {
		failCtx := context.WithoutCancel(ctx)
		if failErr := r.store.FailRun(failCtx, run.ID, err); failErr != nil {
			logger.Error("failed to record run failure", logging.Error(failErr))
		}
		logger.Error("run failed",
			logging.String(logging.FieldEventType, "run_failure"),
			logging.String("output_dir", outputDir),
			logging.Error(err),
		)
		return nil, err
	}
	if err := r.store.FinishRun(ctx, run.ID, res.Title, res.Sentences, res.Analysis.Total); err != nil {
		return nil, fmt.Errorf("record run completion: %w", err)
	}
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("title", res.Title),
		logging.Int("sentences", res.Sentences),
		logging.Int("analyzed", res.Analysis.Total),
		logging.Int("failed_explanations", res.Analysis.Failed),
		logging.String("report", res.ReportPath),
	)
	return res, nil
}

func (r *Runner) execute(ctx context.Context, src source, run *store.Run, outputDir string, llmCfg config.LLMConfig, limit int) (*Result, error) {
	acquireCtx := services.WithStage(ctx, StageAcquire)
	input, err := r.acquire(acquireCtx, logging.WithContext(acquireCtx, r.logger), src, outputDir)
	if err != nil {
		return nil, err
	}

	segmentCtx := services.WithStage(ctx, StageSegment)
	segmenter, err := NewSegmenter(r.cfg, logging.WithContext(segmentCtx, r.logger))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, StageSegment, "build segmenter", "", err)
	}
	blocks, err := subtitles.ReadSRTFile(input.srtPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, StageSegment, "parse subtitles", input.srtPath, err)
	}
	segmented := segmenter.Segment(blocks)
	if err := writeSentences(filepath.Join(outputDir, SentencesFileName), segmented.Sentences); err != nil {
		return nil, services.Wrap(services.ErrTransient, StageSegment, "write sentences", "", err)
	}
	logging.WithContext(segmentCtx, r.logger).Info("subtitles segmented",
		logging.Int("blocks", segmented.Stats.Blocks),
		logging.Int("sentences", segmented.Stats.Sentences),
		logging.Int("fallbacks", segmented.Stats.Fallbacks),
	)

	if limit == 0 {
		limit = r.cfg.Analysis.Limit
	}
	analyzeCtx := services.WithStage(ctx, StageAnalyze)
	var analyzed analysis.Result
	if r.cfg.Analysis.Enabled {
		analyzer := analysis.NewAnalyzer(r.newExplainer(llmCfg),
			analysis.WithCache(r.store),
			analysis.WithWorkers(r.cfg.Analysis.Workers),
			analysis.WithLogger(logging.WithContext(analyzeCtx, r.logger)),
		)
		analyzed, err = analyzer.Analyze(analyzeCtx, segmented.Sentences, limit)
		if err != nil {
			return nil, err
		}
	} else {
		analyzed.Records = analysis.Placeholders(segmented.Sentences, limit)
		analyzed.Stats.Total = len(analyzed.Records)
		logging.WithContext(analyzeCtx, r.logger).Info("analysis disabled; writing sentences without explanations")
	}
	if err := analysis.WriteFile(filepath.Join(outputDir, analysis.FileName), analyzed.Records); err != nil {
		return nil, services.Wrap(services.ErrTransient, StageAnalyze, "write analysis", "", err)
	}

	thumbnail := ""
	if input.thumbnailPath != "" {
		thumbnail = filepath.Base(input.thumbnailPath)
	}
	page := report.Page{
		Title:         input.title,
		VideoURL:      input.videoURL,
		ThumbnailPath: thumbnail,
		Language:      llmCfg.TargetLanguage,
		Records:       analyzed.Records,
	}
	reportPath := filepath.Join(outputDir, report.FileName)
	if err := report.RenderFile(reportPath, page); err != nil {
		return nil, services.Wrap(services.ErrTransient, StageRender, "render report", "", err)
	}
	metaThumb := ""
	if thumbnail != "" {
		metaThumb = filepath.Base(outputDir) + "/" + thumbnail
	}
	meta := report.NewMetadata(outputDir, input.title, input.videoURL, input.duration, metaThumb, len(analyzed.Records), r.now())
	if err := report.WriteMetadata(outputDir, meta); err != nil {
		return nil, services.Wrap(services.ErrTransient, stageFinalize, "write metadata", "", err)
	}

	return &Result{
		RunID:        run.ID,
		OutputDir:    outputDir,
		Title:        input.title,
		ReportPath:   reportPath,
		Sentences:    len(segmented.Sentences),
		Segmentation: segmented.Stats,
		Analysis:     analyzed.Stats,
	}, nil
}

func writeSentences(path string, sentences []subtitles.Sentence) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := subtitles.WriteSentencesJSON(f, sentences); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// IsBusy reports whether err came from another run holding the lock.
func IsBusy(err error) bool {
	return errors.Is(err, services.ErrBusy)
}

func trimmedTitle(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
