// Package pipeline runs one subtitle source end to end.
//
// A run takes the data directory's lock, creates a fresh output directory,
// acquires the subtitles (a local copy or a yt-dlp download), segments them
// into sentences.json, explains sentences into analysis.jsonl, and renders
// index.html plus metadata.json. Every run is recorded in the store with a
// UUID that is attached to all of its log lines as run_id.
package pipeline
