package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"srtgram/internal/fileutil"
	"srtgram/internal/logging"
	"srtgram/internal/services"
	"srtgram/internal/services/ytdlp"
	"srtgram/internal/store"
	"srtgram/internal/textutil"
)

type source struct {
	kind     store.SourceKind
	source   string
	baseName string
}

type acquired struct {
	srtPath       string
	title         string
	videoURL      string
	duration      string
	thumbnailPath string
}

func resolveSource(req Request) (source, error) {
	local := strings.TrimSpace(req.LocalFile)
	url := strings.TrimSpace(req.YouTubeURL)
	switch {
	case local != "" && url != "":
		return source{}, services.Wrap(services.ErrValidation, stageSetup, "validate request", "choose either a local file or a YouTube URL, not both", nil)
	case local != "":
		info, err := os.Stat(local)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return source{}, services.Wrap(services.ErrNotFound, stageSetup, "open subtitle file", local, err)
			}
			return source{}, services.Wrap(services.ErrValidation, stageSetup, "open subtitle file", local, err)
		}
		if info.IsDir() {
			return source{}, services.Wrap(services.ErrValidation, stageSetup, "open subtitle file", local+" is a directory", nil)
		}
		stem := strings.TrimSuffix(filepath.Base(local), filepath.Ext(local))
		name := textutil.SanitizeFileName(stem)
		if name == "" {
			name = "subtitles"
		}
		return source{kind: store.SourceLocal, source: local, baseName: name}, nil
	case url != "":
		id, err := ytdlp.VideoID(url)
		if err != nil {
			return source{}, services.Wrap(services.ErrValidation, stageSetup, "parse youtube url", "", err)
		}
		return source{kind: store.SourceYouTube, source: url, baseName: textutil.SanitizeFileName(id)}, nil
	default:
		return source{}, services.Wrap(services.ErrValidation, stageSetup, "validate request", "a local file or a YouTube URL is required", nil)
	}
}

func (r *Runner) acquire(ctx context.Context, logger *slog.Logger, src source, outputDir string) (acquired, error) {
	if src.kind == store.SourceLocal {
		dst := filepath.Join(outputDir, filepath.Base(src.source))
		if err := fileutil.CopyFile(src.source, dst); err != nil {
			return acquired{}, services.Wrap(services.ErrTransient, StageAcquire, "copy subtitle file", src.source, err)
		}
		logger.Info("subtitle file copied", logging.String("path", dst))
		stem := strings.TrimSuffix(filepath.Base(src.source), filepath.Ext(src.source))
		return acquired{srtPath: dst, title: trimmedTitle(stem, src.baseName)}, nil
	}

	url := src.source
	meta, err := r.ytdlp.Metadata(ctx, url)
	if err != nil {
		return acquired{}, services.Wrap(services.ErrExternalTool, StageAcquire, "fetch video metadata", "", err)
	}
	if !meta.HasSubtitles && !meta.HasAutoCaptions {
		logging.WarnWithContext(logger, "video lists no captions in the requested language", "captions_missing",
			logging.String(logging.FieldImpact, "subtitle download will likely fail"),
			logging.String("language", r.ytdlp.SubLang()),
			logging.Any("available", meta.CaptionLanguages),
		)
	}
	srtPath, err := r.ytdlp.DownloadSubtitles(ctx, url, outputDir)
	if err != nil {
		if errors.Is(err, ytdlp.ErrSubtitlesUnavailable) {
			return acquired{}, services.Wrap(services.ErrNotFound, StageAcquire, "download subtitles", "", err)
		}
		return acquired{}, services.Wrap(services.ErrExternalTool, StageAcquire, "download subtitles", "", err)
	}

	result := acquired{
		srtPath:  srtPath,
		title:    trimmedTitle(meta.Title, src.baseName),
		videoURL: url,
		duration: meta.Duration,
	}
	if r.cfg.YTDLP.Thumbnail {
		thumb, err := r.ytdlp.DownloadThumbnail(ctx, url, outputDir)
		if err != nil {
			if ctx.Err() != nil {
				return acquired{}, ctx.Err()
			}
			logging.WarnWithContext(logger, "thumbnail download failed", "thumbnail_failed",
				logging.String(logging.FieldImpact, "report renders without a thumbnail"),
				logging.Error(err),
			)
		} else {
			result.thumbnailPath = thumb
		}
	}
	return result, nil
}
