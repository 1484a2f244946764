package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"srtgram/internal/language"
	"srtgram/internal/logging"
)

const (
	// DefaultBinary is the executable looked up on PATH.
	DefaultBinary = "yt-dlp"
	// SubtitleBaseName is the output template stem for downloaded captions.
	SubtitleBaseName = "subtitle"
	// ThumbnailFile is the converted thumbnail written next to the report.
	ThumbnailFile = "thumbnail.png"

	defaultTimeout = 5 * time.Minute
)

var (
	// ErrInvalidURL marks URLs without a recognizable YouTube video ID.
	ErrInvalidURL = errors.New("invalid youtube url")
	// ErrSubtitlesUnavailable marks videos without captions in the requested language.
	ErrSubtitlesUnavailable = errors.New("subtitles unavailable")
)

var videoIDPattern = regexp.MustCompile(`(?:watch\?v=|youtu\.be/|/shorts/|/embed/)([\w-]+)`)

// VideoID extracts the video identifier from a watch, short-link, shorts or embed URL.
func VideoID(rawURL string) (string, error) {
	match := videoIDPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if match == nil || match[1] == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return match[1], nil
}

// CommandRunner executes name with args and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Config controls how yt-dlp is invoked.
type Config struct {
	Binary         string
	SubLang        string
	TimeoutSeconds int
}

// Client invokes yt-dlp.
type Client struct {
	binary  string
	subLang string
	timeout time.Duration
	runner  CommandRunner
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithCommandRunner replaces process execution (for testing).
func WithCommandRunner(runner CommandRunner) Option {
	return func(c *Client) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a Client from cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = DefaultBinary
	}
	subLang := language.ToISO2(cfg.SubLang)
	if subLang == "" {
		subLang = "en"
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		binary:  binary,
		subLang: subLang,
		timeout: timeout,
		runner:  execRunner,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "ytdlp")
	return c
}

// SubLang reports the ISO 639-1 caption language requested from yt-dlp.
func (c *Client) SubLang() string {
	return c.subLang
}

// Metadata describes a video as reported by yt-dlp.
type Metadata struct {
	ID               string
	Title            string
	Duration         string
	DurationSeconds  float64
	ThumbnailURL     string
	HasSubtitles     bool
	HasAutoCaptions  bool
	CaptionLanguages []string
}

type videoInfo struct {
	ID                string                     `json:"id"`
	Title             string                     `json:"title"`
	Duration          float64                    `json:"duration"`
	DurationString    string                     `json:"duration_string"`
	Thumbnail         string                     `json:"thumbnail"`
	Subtitles         map[string]json.RawMessage `json:"subtitles"`
	AutomaticCaptions map[string]json.RawMessage `json:"automatic_captions"`
}

// Metadata fetches title, duration, thumbnail and caption availability.
func (c *Client) Metadata(ctx context.Context, url string) (Metadata, error) {
	if _, err := VideoID(url); err != nil {
		return Metadata{}, err
	}
	out, err := c.run(ctx, "--dump-single-json", "--skip-download", "--no-warnings", url)
	if err != nil {
		return Metadata{}, fmt.Errorf("ytdlp metadata: %w", err)
	}
	var info videoInfo
	if err := json.Unmarshal(extractJSON(out), &info); err != nil {
		return Metadata{}, fmt.Errorf("ytdlp metadata: decode: %w", err)
	}
	meta := Metadata{
		ID:              info.ID,
		Title:           strings.TrimSpace(info.Title),
		Duration:        strings.TrimSpace(info.DurationString),
		DurationSeconds: info.Duration,
		ThumbnailURL:    strings.TrimSpace(info.Thumbnail),
		HasSubtitles:    hasLanguage(info.Subtitles, c.subLang),
		HasAutoCaptions: hasLanguage(info.AutomaticCaptions, c.subLang),
	}
	if meta.Duration == "" && info.Duration > 0 {
		meta.Duration = formatDuration(info.Duration)
	}
	seen := make(map[string]struct{})
	for _, set := range []map[string]json.RawMessage{info.Subtitles, info.AutomaticCaptions} {
		for lang := range set {
			if _, ok := seen[lang]; ok {
				continue
			}
			seen[lang] = struct{}{}
			meta.CaptionLanguages = append(meta.CaptionLanguages, lang)
		}
	}
	sort.Strings(meta.CaptionLanguages)
	c.logger.Debug("video metadata fetched",
		logging.String("video_id", meta.ID),
		logging.String("title", meta.Title),
		logging.String("duration", meta.Duration),
		logging.Bool("subtitles", meta.HasSubtitles),
		logging.Bool("auto_captions", meta.HasAutoCaptions),
	)
	return meta, nil
}

// DownloadSubtitles saves the video's captions as SRT inside dir and returns the file path.
func (c *Client) DownloadSubtitles(ctx context.Context, url, dir string) (string, error) {
	if _, err := VideoID(url); err != nil {
		return "", err
	}
	template := filepath.Join(dir, SubtitleBaseName)
	args := []string{
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", c.subLang,
		"--sub-format", "srt/best",
		"--convert-subs", "srt",
		"--skip-download",
		"--no-warnings",
		"-o", template,
		url,
	}
	if _, err := c.run(ctx, args...); err != nil {
		return "", fmt.Errorf("ytdlp subtitles: %w", err)
	}
	path, err := findSubtitle(dir, c.subLang)
	if err != nil {
		return "", err
	}
	c.logger.Info("subtitles downloaded",
		logging.String("path", path),
		logging.String("language", c.subLang),
	)
	return path, nil
}

// DownloadThumbnail saves the video thumbnail as dir/thumbnail.png.
func (c *Client) DownloadThumbnail(ctx context.Context, url, dir string) (string, error) {
	if _, err := VideoID(url); err != nil {
		return "", err
	}
	template := filepath.Join(dir, strings.TrimSuffix(ThumbnailFile, filepath.Ext(ThumbnailFile)))
	args := []string{
		"--write-thumbnail",
		"--convert-thumbnails", "png",
		"--skip-download",
		"--no-warnings",
		"-o", template,
		url,
	}
	if _, err := c.run(ctx, args...); err != nil {
		return "", fmt.Errorf("ytdlp thumbnail: %w", err)
	}
	path := filepath.Join(dir, ThumbnailFile)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("ytdlp thumbnail: %s not written: %w", ThumbnailFile, err)
	}
	return path, nil
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	c.logger.Debug("running yt-dlp", logging.String("binary", c.binary), logging.Any("args", args))
	return c.runner(ctx, c.binary, args...)
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// findSubtitle locates the SRT yt-dlp wrote, preferring the requested language.
func findSubtitle(dir, lang string) (string, error) {
	preferred := filepath.Join(dir, fmt.Sprintf("%s.%s.srt", SubtitleBaseName, lang))
	if info, err := os.Stat(preferred); err == nil && info.Size() > 0 {
		return preferred, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, SubtitleBaseName+"*.srt"))
	if err != nil {
		return "", fmt.Errorf("ytdlp subtitles: %w", err)
	}
	sort.Strings(matches)
	for _, match := range matches {
		if info, err := os.Stat(match); err == nil && info.Size() > 0 {
			return match, nil
		}
	}
	return "", fmt.Errorf("%w: no %s captions", ErrSubtitlesUnavailable, lang)
}

func hasLanguage(set map[string]json.RawMessage, lang string) bool {
	for key := range set {
		if key == lang || strings.HasPrefix(key, lang+"-") {
			return true
		}
	}
	return false
}

// extractJSON drops any non-JSON lines yt-dlp prints around the payload.
func extractJSON(out []byte) []byte {
	for _, line := range bytes.Split(out, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) > 0 && line[0] == '{' {
			return line
		}
	}
	return bytes.TrimSpace(out)
}

func formatDuration(seconds float64) string {
	total := int(seconds + 0.5)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return strconv.Itoa(m) + ":" + fmt.Sprintf("%02d", s)
}
