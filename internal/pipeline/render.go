package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"srtgram/internal/analysis"
	"srtgram/internal/report"
	"srtgram/internal/services/ytdlp"
)

// RenderDir rebuilds index.html in an existing run directory from
// analysis.jsonl and metadata.json. A missing metadata file is tolerated.
func RenderDir(dir, targetLanguage string) (string, error) {
	records, err := analysis.ReadFile(filepath.Join(dir, analysis.FileName))
	if err != nil {
		return "", fmt.Errorf("read analysis: %w", err)
	}
	meta, err := report.ReadMetadata(dir)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	title := meta.Title
	if title == "" {
		title = filepath.Base(dir)
	}
	thumbnail := ""
	if _, err := os.Stat(filepath.Join(dir, ytdlp.ThumbnailFile)); err == nil {
		thumbnail = ytdlp.ThumbnailFile
	}
	path := filepath.Join(dir, report.FileName)
	err = report.RenderFile(path, report.Page{
		Title:         title,
		VideoURL:      meta.VideoURL,
		ThumbnailPath: thumbnail,
		Language:      targetLanguage,
		Records:       records,
	})
	if err != nil {
		return "", err
	}
	return path, nil
}
