package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"srtgram/internal/fileutil"
)

// MetadataFileName is written next to the page.
const MetadataFileName = "metadata.json"

// Metadata summarizes a run directory for indexes and re-rendering.
type Metadata struct {
	Title         string `json:"title"`
	VideoURL      string `json:"video_url,omitempty"`
	Duration      string `json:"duration,omitempty"`
	SentenceCount int    `json:"sentence_count"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	ReportPath    string `json:"report_path"`
	CreationDate  string `json:"creation_date"`
	OutputDirName string `json:"output_dir_name"`
}

// NewMetadata fills the derived fields for a run written to dir.
func NewMetadata(dir, title, videoURL, duration, thumbnailPath string, sentenceCount int, now time.Time) Metadata {
	name := filepath.Base(dir)
	return Metadata{
		Title:         title,
		VideoURL:      videoURL,
		Duration:      duration,
		SentenceCount: sentenceCount,
		ThumbnailPath: thumbnailPath,
		ReportPath:    name + "/" + FileName,
		CreationDate:  now.UTC().Format(time.RFC3339),
		OutputDirName: name,
	}
}

// WriteMetadata writes dir/metadata.json atomically.
func WriteMetadata(dir string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, MetadataFileName), data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// ReadMetadata loads dir/metadata.json.
func ReadMetadata(dir string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(filepath.Join(dir, MetadataFileName))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}
