package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"srtgram/internal/subtitles"
)

// SampleSRT is a small subtitle file whose sentences cross cue boundaries.
const SampleSRT = `1
00:00:01,000 --> 00:00:03,000
Welcome back to the show.

2
00:00:03,500 --> 00:00:05,000
Today we're talking about

3
00:00:05,000 --> 00:00:07,250
subtitles. Are you ready?

4
00:00:08,000 --> 00:00:09,000
Let's go!
`

// SampleSentences are the sentences SampleSRT segments into.
var SampleSentences = []subtitles.Sentence{
	{Timestamp: "00:00:01,000", Text: "Welcome back to the show."},
	{Timestamp: "00:00:03,500", Text: "Today we're talking about subtitles."},
	{Timestamp: "00:00:05,000", Text: "Are you ready?"},
	{Timestamp: "00:00:08,000", Text: "Let's go!"},
}

// WriteSRT writes content to dir/name and returns the path.
func WriteSRT(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
