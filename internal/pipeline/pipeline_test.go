package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"

	"srtgram/internal/analysis"
	"srtgram/internal/config"
	"srtgram/internal/report"
	"srtgram/internal/services"
	"srtgram/internal/services/llm"
	"srtgram/internal/services/ytdlp"
	"srtgram/internal/store"
	"srtgram/internal/subtitles"
	"srtgram/internal/testsupport"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRunner(t *testing.T, cfg *config.Config, opts ...Option) (*Runner, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	runner := NewRunner(cfg, st, opts...)
	ids := 0
	runner.newID = func() string {
		ids++
		return "run-" + string(rune('0'+ids))
	}
	return runner, st
}

func readSentences(t *testing.T, dir string) []subtitles.Sentence {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, SentencesFileName))
	if err != nil {
		t.Fatalf("open sentences: %v", err)
	}
	defer f.Close()
	sentences, err := subtitles.ReadSentencesJSON(f)
	if err != nil {
		t.Fatalf("read sentences: %v", err)
	}
	return sentences
}

func TestRunLocalFileWithoutAnalysis(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srt := testsupport.WriteSRT(t, t.TempDir(), "My Talk.srt", testsupport.SampleSRT)
	runner, st := newTestRunner(t, cfg)

	res, err := runner.Run(context.Background(), Request{LocalFile: srt})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.OutputDir != filepath.Join(cfg.Paths.OutputDir, "My Talk") {
		t.Fatalf("unexpected output dir %q", res.OutputDir)
	}
	if res.Title != "My Talk" || res.Sentences != 4 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := os.Stat(filepath.Join(res.OutputDir, "My Talk.srt")); err != nil {
		t.Fatalf("expected copied srt: %v", err)
	}
	if diff := cmp.Diff(testsupport.SampleSentences, readSentences(t, res.OutputDir)); diff != "" {
		t.Fatalf("sentences mismatch (-want +got):\n%s", diff)
	}

	records, err := analysis.ReadFile(filepath.Join(res.OutputDir, analysis.FileName))
	if err != nil {
		t.Fatalf("read analysis: %v", err)
	}
	if len(records) != 4 || records[0].Explanation != "" || records[2].OriginalSentence != "Are you ready?" {
		t.Fatalf("unexpected placeholder records %+v", records)
	}

	page, err := os.ReadFile(res.ReportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(page), "Today we&#39;re talking about subtitles.") {
		t.Fatalf("report missing sentence:\n%s", page)
	}

	meta, err := report.ReadMetadata(res.OutputDir)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	want := report.Metadata{
		Title:         "My Talk",
		SentenceCount: 4,
		ReportPath:    "My Talk/index.html",
		CreationDate:  "2026-05-01T12:00:00Z",
		OutputDirName: "My Talk",
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}

	run, err := st.GetRun(context.Background(), res.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Status != store.StatusCompleted || run.SentenceCount != 4 || run.SourceKind != store.SourceLocal {
		t.Fatalf("unexpected run record %+v", run)
	}
}

func TestRunCreatesUniqueDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srt := testsupport.WriteSRT(t, t.TempDir(), "clip.srt", testsupport.SampleSRT)
	runner, _ := newTestRunner(t, cfg)

	var dirs []string
	for range 3 {
		res, err := runner.Run(context.Background(), Request{LocalFile: srt})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		dirs = append(dirs, filepath.Base(res.OutputDir))
	}
	if diff := cmp.Diff([]string{"clip", "clip_02", "clip_03"}, dirs); diff != "" {
		t.Fatalf("dir names mismatch (-want +got):\n%s", diff)
	}
}

func TestRunLimitAndAnalysis(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		sentence := req.Messages[len(req.Messages)-1].Content
		mu.Lock()
		calls = append(calls, req.Model+"|"+sentence)
		mu.Unlock()
		if strings.HasPrefix(sentence, "Today") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad"}`))
			return
		}
		content, _ := json.Marshal(map[string]string{"translation": "訳", "explanation": "- " + sentence})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": string(content)}}},
		})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithLLM(server.URL, "base-model"))
	srt := testsupport.WriteSRT(t, t.TempDir(), "lesson.srt", testsupport.SampleSRT)
	var (
		progressMu sync.Mutex
		progress   []int
	)
	runner, st := newTestRunner(t, cfg,
		WithLLMOptions(llm.WithRetryMaxAttempts(1)),
		WithProgress(func(done, total int) {
			progressMu.Lock()
			defer progressMu.Unlock()
			if total != 3 {
				t.Errorf("progress total = %d, want 3", total)
			}
			progress = append(progress, done)
		}),
	)

	res, err := runner.Run(context.Background(), Request{LocalFile: srt, Model: "override", Limit: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Sentences != 4 || res.Analysis.Total != 3 || res.Analysis.Failed != 1 || res.Analysis.Explained != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	mu.Lock()
	gotCalls := slices.Clone(calls)
	mu.Unlock()
	if len(gotCalls) != 3 {
		t.Fatalf("expected 3 llm calls, got %v", gotCalls)
	}
	progressMu.Lock()
	slices.Sort(progress)
	if diff := cmp.Diff([]int{1, 2, 3}, progress); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}
	progressMu.Unlock()
	for _, call := range gotCalls {
		if !strings.HasPrefix(call, "override|") {
			t.Fatalf("model override not applied: %q", call)
		}
	}

	records, err := analysis.ReadFile(filepath.Join(res.OutputDir, analysis.FileName))
	if err != nil {
		t.Fatalf("read analysis: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if !records[1].Failed() || !strings.HasPrefix(records[1].Explanation, "Failed to get explanation: ") {
		t.Fatalf("expected folded failure, got %+v", records[1])
	}
	if records[0].Translation != "訳" {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	meta, err := report.ReadMetadata(res.OutputDir)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if meta.SentenceCount != 3 {
		t.Fatalf("metadata sentence count = %d, want 3", meta.SentenceCount)
	}

	run, err := st.GetRun(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Model != "override" || run.AnalyzedCount != 3 {
		t.Fatalf("unexpected run record %+v", run)
	}
	if _, ok, err := st.LookupExplanation(context.Background(), "override", testsupport.SampleSentences[0].Text); err != nil || !ok {
		t.Fatalf("expected cached explanation (ok=%v err=%v)", ok, err)
	}
}

type fakeYTDLP struct {
	failSubtitles bool
	failThumbnail bool
	calls         []string
}

func (f *fakeYTDLP) run(_ context.Context, _ string, args ...string) ([]byte, error) {
	output := ""
	if idx := slices.Index(args, "-o"); idx >= 0 && idx+1 < len(args) {
		output = args[idx+1]
	}
	switch {
	case slices.Contains(args, "--dump-single-json"):
		f.calls = append(f.calls, "metadata")
		return []byte(`{"id":"abc123","title":"Demo Video","duration":125,"duration_string":"2:05","subtitles":{"en":[]}}`), nil
	case slices.Contains(args, "--write-subs"):
		f.calls = append(f.calls, "subtitles")
		if f.failSubtitles {
			return nil, errors.New("yt-dlp: exit status 1: no subtitles")
		}
		return nil, os.WriteFile(output+".en.srt", []byte(testsupport.SampleSRT), 0o644)
	case slices.Contains(args, "--write-thumbnail"):
		f.calls = append(f.calls, "thumbnail")
		if f.failThumbnail {
			return nil, errors.New("yt-dlp: exit status 1: thumbnail")
		}
		return nil, os.WriteFile(output+".png", []byte("png"), 0o644)
	}
	return nil, errors.New("unexpected yt-dlp call")
}

func TestRunYouTube(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.YTDLP.Thumbnail = true
	fake := &fakeYTDLP{}
	client := ytdlp.NewClient(ytdlp.Config{}, ytdlp.WithCommandRunner(fake.run))
	runner, st := newTestRunner(t, cfg, WithYTDLP(client))

	url := "https://www.youtube.com/watch?v=abc123"
	res, err := runner.Run(context.Background(), Request{YouTubeURL: url})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"metadata", "subtitles", "thumbnail"}, fake.calls); diff != "" {
		t.Fatalf("yt-dlp calls mismatch (-want +got):\n%s", diff)
	}
	if filepath.Base(res.OutputDir) != "abc123" || res.Title != "Demo Video" {
		t.Fatalf("unexpected result %+v", res)
	}
	meta, err := report.ReadMetadata(res.OutputDir)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if meta.VideoURL != url || meta.Duration != "2:05" || meta.ThumbnailPath != "abc123/thumbnail.png" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	page, err := os.ReadFile(res.ReportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"https://www.youtube.com/embed/abc123", `src="thumbnail.png"`, "watch?v=abc123&amp;t=8s"} {
		if !strings.Contains(string(page), want) {
			t.Fatalf("report missing %q", want)
		}
	}
	run, err := st.GetRun(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.SourceKind != store.SourceYouTube || run.Title != "Demo Video" {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestRunYouTubeThumbnailIsBestEffort(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.YTDLP.Thumbnail = true
	fake := &fakeYTDLP{failThumbnail: true}
	client := ytdlp.NewClient(ytdlp.Config{}, ytdlp.WithCommandRunner(fake.run))
	runner, _ := newTestRunner(t, cfg, WithYTDLP(client))

	res, err := runner.Run(context.Background(), Request{YouTubeURL: "https://youtu.be/abc123"})
	if err != nil {
		t.Fatalf("Run should survive thumbnail failure: %v", err)
	}
	meta, err := report.ReadMetadata(res.OutputDir)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if meta.ThumbnailPath != "" {
		t.Fatalf("expected no thumbnail, got %q", meta.ThumbnailPath)
	}
}

func TestRunRecordsFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := &fakeYTDLP{failSubtitles: true}
	client := ytdlp.NewClient(ytdlp.Config{}, ytdlp.WithCommandRunner(fake.run))
	runner, st := newTestRunner(t, cfg, WithYTDLP(client))

	_, err := runner.Run(context.Background(), Request{YouTubeURL: "https://youtu.be/abc123"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if services.ExitCode(err) != services.ExitExternalTool {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
	runs, err := st.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != store.StatusFailed || !strings.Contains(runs[0].Error, "download subtitles") {
		t.Fatalf("expected recorded failure, got %+v", runs)
	}
}

func TestRunRejectsMalformedSubtitles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srt := testsupport.WriteSRT(t, t.TempDir(), "broken.srt", "1\nnot a timing line\nHello\n")
	runner, _ := newTestRunner(t, cfg)
	_, err := runner.Run(context.Background(), Request{LocalFile: srt})
	if !errors.Is(err, subtitles.ErrMalformedSRT) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected malformed srt validation error, got %v", err)
	}
}

func TestRunValidatesRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srt := testsupport.WriteSRT(t, t.TempDir(), "a.srt", testsupport.SampleSRT)
	runner, _ := newTestRunner(t, cfg)
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"empty", Request{}, services.ErrValidation},
		{"both", Request{LocalFile: srt, YouTubeURL: "https://youtu.be/x"}, services.ErrValidation},
		{"missing file", Request{LocalFile: filepath.Join(t.TempDir(), "nope.srt")}, services.ErrNotFound},
		{"directory", Request{LocalFile: t.TempDir()}, services.ErrValidation},
		{"bad url", Request{YouTubeURL: "https://vimeo.com/1"}, ytdlp.ErrInvalidURL},
		{"negative limit", Request{LocalFile: srt, Limit: -1}, services.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runner.Run(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRunFailsFastWhenLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = held.Unlock() }()

	srt := testsupport.WriteSRT(t, t.TempDir(), "a.srt", testsupport.SampleSRT)
	runner, st := newTestRunner(t, cfg)
	_, err = runner.Run(context.Background(), Request{LocalFile: srt})
	if !IsBusy(err) || services.ExitCode(err) != services.ExitBusy {
		t.Fatalf("expected busy error, got %v", err)
	}
	runs, err := st.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("busy run should not be recorded, got %d", len(runs))
	}
	entries, err := os.ReadDir(cfg.Paths.OutputDir)
	if err == nil && len(entries) != 0 {
		t.Fatalf("busy run should not create output directories")
	}
}

func TestNewSegmenterFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithProtectedAbbreviations("dr."))
	cfg.Segmentation.Attribution = config.AttributionIndexed
	segmenter, err := NewSegmenter(cfg, nil)
	if err != nil {
		t.Fatalf("NewSegmenter: %v", err)
	}
	if !segmenter.ProtectMode() {
		t.Fatal("expected protect mode")
	}
	blocks := []subtitles.Block{{Index: 1, Start: "00:00:01,000", Text: "Ask Dr. Smith today."}}
	got := segmenter.Segment(blocks).Sentences
	if len(got) != 1 || got[0].Text != "Ask Dr. Smith today." {
		t.Fatalf("unexpected sentences %+v", got)
	}

	cfg.Segmentation.Attribution = "bogus"
	if _, err := NewSegmenter(cfg, nil); err == nil {
		t.Fatal("expected error for unknown attribution")
	}

	plain := testsupport.NewConfig(t)
	segmenter, err = NewSegmenter(plain, nil)
	if err != nil {
		t.Fatalf("NewSegmenter: %v", err)
	}
	if segmenter.ProtectMode() {
		t.Fatal("protect mode should be off by default")
	}
}

func TestRenderDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srt := testsupport.WriteSRT(t, t.TempDir(), "talk.srt", testsupport.SampleSRT)
	runner, _ := newTestRunner(t, cfg)
	res, err := runner.Run(context.Background(), Request{LocalFile: srt})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := os.Remove(res.ReportPath); err != nil {
		t.Fatalf("remove report: %v", err)
	}
	edited := []analysis.Record{{Timestamp: "00:00:01,000", OriginalSentence: "Edited.", Explanation: "*new*"}}
	if err := analysis.WriteFile(filepath.Join(res.OutputDir, analysis.FileName), edited); err != nil {
		t.Fatalf("write analysis: %v", err)
	}
	path, err := RenderDir(res.OutputDir, "English")
	if err != nil {
		t.Fatalf("RenderDir: %v", err)
	}
	page, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if !strings.Contains(string(page), "<em>new</em>") || !strings.Contains(string(page), "<title>talk</title>") {
		t.Fatalf("unexpected rerendered page:\n%s", page)
	}

	if _, err := RenderDir(t.TempDir(), "English"); err == nil {
		t.Fatal("expected error for directory without analysis")
	}
}
