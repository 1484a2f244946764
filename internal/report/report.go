package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"

	"srtgram/internal/analysis"
	"srtgram/internal/fileutil"
	"srtgram/internal/language"
	"srtgram/internal/services/ytdlp"
	"srtgram/internal/subtitles"
)

// FileName is the rendered page inside a run directory.
const FileName = "index.html"

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

var hints = map[string]struct{ hint, empty string }{
	"en": {"Click a sentence to show or hide its explanation.", "No explanation available."},
	"ja": {"各英文をクリックすると、解説が開閉します。", "解説はありません。"},
}

// Page is the input to RenderPage.
type Page struct {
	Title         string
	VideoURL      string
	ThumbnailPath string
	// Language is the explanation language; it selects the page's lang and UI strings.
	Language string
	Records  []analysis.Record
}

type entry struct {
	Timestamp       string
	Link            string
	Sentence        string
	Translation     string
	ExplanationHTML template.HTML
	Failed          bool
	Error           string
}

type pageView struct {
	Lang          string
	Title         string
	Hint          string
	EmptyText     string
	EmbedURL      string
	ThumbnailPath string
	Entries       []entry
}

// RenderPage writes page as a self-contained HTML document.
func RenderPage(w io.Writer, page Page) error {
	view, err := buildView(page)
	if err != nil {
		return err
	}
	if err := pageTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// RenderFile renders page to path atomically.
func RenderFile(path string, page Page) error {
	var buf bytes.Buffer
	if err := RenderPage(&buf, page); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", FileName, err)
	}
	return nil
}

func buildView(page Page) (pageView, error) {
	lang := language.ToISO2(page.Language)
	strs, ok := hints[lang]
	if !ok {
		strs = hints["en"]
	}
	if lang == "" {
		lang = "en"
	}
	view := pageView{
		Lang:          lang,
		Title:         strings.TrimSpace(page.Title),
		Hint:          strs.hint,
		EmptyText:     strs.empty,
		ThumbnailPath: strings.TrimSpace(page.ThumbnailPath),
		Entries:       make([]entry, 0, len(page.Records)),
	}
	if view.Title == "" {
		view.Title = "Subtitle Analysis"
	}
	videoID := ""
	if url := strings.TrimSpace(page.VideoURL); url != "" {
		if id, err := ytdlp.VideoID(url); err == nil {
			videoID = id
			view.EmbedURL = embedURLFor(id)
		}
	}
	for i, record := range page.Records {
		e := entry{
			Timestamp:   record.Timestamp,
			Sentence:    record.OriginalSentence,
			Translation: record.Translation,
		}
		if videoID != "" {
			e.Link = timestampLink(videoID, record.Timestamp)
		}
		switch {
		case record.Failed():
			e.Failed = true
			e.Error = record.Explanation
		case strings.TrimSpace(record.Explanation) != "":
			rendered, err := RenderMarkdown(record.Explanation)
			if err != nil {
				return pageView{}, fmt.Errorf("render explanation %d: %w", i, err)
			}
			e.ExplanationHTML = rendered
		}
		view.Entries = append(view.Entries, e)
	}
	return view, nil
}

// EmbedURL returns the embeddable player URL for a YouTube link, or an empty
// string when no video ID can be found.
func EmbedURL(url string) string {
	id, err := ytdlp.VideoID(url)
	if err != nil {
		return ""
	}
	return embedURLFor(id)
}

func embedURLFor(id string) string {
	return "https://www.youtube.com/embed/" + id
}

// TimestampLink returns a watch URL that starts playback at timestamp.
func TimestampLink(url, timestamp string) string {
	id, err := ytdlp.VideoID(url)
	if err != nil {
		return ""
	}
	return timestampLink(id, timestamp)
}

func timestampLink(id, timestamp string) string {
	watch := "https://www.youtube.com/watch?v=" + id
	seconds, err := subtitles.TimestampSeconds(timestamp)
	if err != nil {
		return watch
	}
	return fmt.Sprintf("%s&t=%ds", watch, int(math.Floor(seconds)))
}
