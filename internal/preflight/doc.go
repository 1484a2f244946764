// Package preflight provides readiness checks for the directories and
// external services srtgram depends on.
//
// The "srtgram doctor" command prints every result. Each check is gated by
// its config toggle: the LLM probe only runs when analysis is enabled, and
// yt-dlp and FFmpeg are reported as optional because local subtitle files
// need neither.
package preflight
