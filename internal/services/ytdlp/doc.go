// Package ytdlp wraps the yt-dlp executable for fetching YouTube metadata,
// captions and thumbnails.
//
// All invocations go through a CommandRunner so tests can stub the binary.
// Captions are requested as SRT (manual subtitles preferred, automatic
// captions accepted) and land in the run's output directory.
package ytdlp
