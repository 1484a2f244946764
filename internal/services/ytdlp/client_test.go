package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

type recordedCall struct {
	name string
	args []string
}

func stubRunner(calls *[]recordedCall, fn func(args []string) ([]byte, error)) CommandRunner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: append([]string(nil), args...)})
		return fn(args)
	}
}

func argValue(args []string, flag string) string {
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		return ""
	}
	return args[idx+1]
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://youtu.be/abc-DEF_123", "abc-DEF_123"},
		{"https://www.youtube.com/shorts/xyz987", "xyz987"},
		{"https://www.youtube.com/embed/emb42", "emb42"},
	}
	for _, tc := range tests {
		got, err := VideoID(tc.url)
		if err != nil {
			t.Fatalf("VideoID(%q): %v", tc.url, err)
		}
		if got != tc.want {
			t.Fatalf("VideoID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
	for _, bad := range []string{"", "https://vimeo.com/12345", "not a url"} {
		if _, err := VideoID(bad); !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("VideoID(%q) err = %v, want ErrInvalidURL", bad, err)
		}
	}
}

func TestMetadataParsesDumpJSON(t *testing.T) {
	payload := `WARNING: something noisy
{"id":"abc123","title":" Demo Talk ","duration":3725,"thumbnail":"https://i.ytimg.com/vi/abc123/maxres.jpg","subtitles":{"en":[]},"automatic_captions":{"en-orig":[],"fr":[]}}`
	var calls []recordedCall
	client := NewClient(Config{Binary: "/opt/yt-dlp", SubLang: "english"}, WithCommandRunner(stubRunner(&calls, func([]string) ([]byte, error) {
		return []byte(payload), nil
	})))

	meta, err := client.Metadata(context.Background(), "https://youtu.be/abc123")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.Title != "Demo Talk" || meta.ID != "abc123" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if meta.Duration != "1:02:05" {
		t.Fatalf("Duration = %q, want 1:02:05", meta.Duration)
	}
	if !meta.HasSubtitles || !meta.HasAutoCaptions {
		t.Fatalf("expected caption availability, got %+v", meta)
	}
	if !slices.Equal(meta.CaptionLanguages, []string{"en", "en-orig", "fr"}) {
		t.Fatalf("unexpected caption languages %v", meta.CaptionLanguages)
	}
	if len(calls) != 1 || calls[0].name != "/opt/yt-dlp" || !slices.Contains(calls[0].args, "--dump-single-json") {
		t.Fatalf("unexpected invocation %+v", calls)
	}
}

func TestMetadataPropagatesRunnerError(t *testing.T) {
	var calls []recordedCall
	client := NewClient(Config{}, WithCommandRunner(stubRunner(&calls, func([]string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})))
	if _, err := client.Metadata(context.Background(), "https://youtu.be/abc123"); err == nil || !strings.Contains(err.Error(), "exit status 1") {
		t.Fatalf("expected runner error, got %v", err)
	}
	if _, err := client.Metadata(context.Background(), "https://example.com"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("invalid url should not invoke yt-dlp, got %d calls", len(calls))
	}
}

func TestDownloadSubtitlesFindsFile(t *testing.T) {
	dir := t.TempDir()
	var calls []recordedCall
	client := NewClient(Config{SubLang: "en"}, WithCommandRunner(stubRunner(&calls, func(args []string) ([]byte, error) {
		template := argValue(args, "-o")
		lang := argValue(args, "--sub-langs")
		return nil, os.WriteFile(template+"."+lang+".srt", []byte("1\n00:00:01,000 --> 00:00:02,000\nHi.\n"), 0o644)
	})))

	path, err := client.DownloadSubtitles(context.Background(), "https://www.youtube.com/watch?v=abc123", dir)
	if err != nil {
		t.Fatalf("DownloadSubtitles: %v", err)
	}
	if want := filepath.Join(dir, "subtitle.en.srt"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	args := calls[0].args
	for _, flag := range []string{"--write-subs", "--write-auto-subs", "--skip-download", "--convert-subs"} {
		if !slices.Contains(args, flag) {
			t.Fatalf("expected %s in args %v", flag, args)
		}
	}
	if args[len(args)-1] != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("url should be the final argument, got %v", args)
	}
}

func TestDownloadSubtitlesFallsBackToRegionalFile(t *testing.T) {
	dir := t.TempDir()
	var calls []recordedCall
	client := NewClient(Config{SubLang: "en"}, WithCommandRunner(stubRunner(&calls, func(args []string) ([]byte, error) {
		return nil, os.WriteFile(argValue(args, "-o")+".en-US.srt", []byte("1\n00:00:01,000 --> 00:00:02,000\nHi.\n"), 0o644)
	})))
	path, err := client.DownloadSubtitles(context.Background(), "https://youtu.be/abc123", dir)
	if err != nil {
		t.Fatalf("DownloadSubtitles: %v", err)
	}
	if filepath.Base(path) != "subtitle.en-US.srt" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestDownloadSubtitlesUnavailable(t *testing.T) {
	var calls []recordedCall
	client := NewClient(Config{SubLang: "ja"}, WithCommandRunner(stubRunner(&calls, func([]string) ([]byte, error) {
		return nil, nil
	})))
	_, err := client.DownloadSubtitles(context.Background(), "https://youtu.be/abc123", t.TempDir())
	if !errors.Is(err, ErrSubtitlesUnavailable) {
		t.Fatalf("expected ErrSubtitlesUnavailable, got %v", err)
	}
}

func TestDownloadThumbnail(t *testing.T) {
	dir := t.TempDir()
	var calls []recordedCall
	client := NewClient(Config{}, WithCommandRunner(stubRunner(&calls, func(args []string) ([]byte, error) {
		return nil, os.WriteFile(argValue(args, "-o")+".png", []byte("png"), 0o644)
	})))
	path, err := client.DownloadThumbnail(context.Background(), "https://youtu.be/abc123", dir)
	if err != nil {
		t.Fatalf("DownloadThumbnail: %v", err)
	}
	if path != filepath.Join(dir, ThumbnailFile) {
		t.Fatalf("unexpected thumbnail path %q", path)
	}
	if argValue(calls[0].args, "--convert-thumbnails") != "png" {
		t.Fatalf("expected png conversion, got %v", calls[0].args)
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{SubLang: "jpn"})
	if client.SubLang() != "ja" {
		t.Fatalf("SubLang = %q, want ja", client.SubLang())
	}
	if client.binary != DefaultBinary {
		t.Fatalf("binary = %q, want %q", client.binary, DefaultBinary)
	}
	if NewClient(Config{}).SubLang() != "en" {
		t.Fatal("expected english captions by default")
	}
}
