// Command srtgram turns subtitles into timestamped sentences and an
// annotated grammar report.
//
//	srtgram run -l talk.srt
//	srtgram run -y https://youtu.be/VIDEO_ID -m gemma3:27b --limit 20
//	srtgram segment talk.srt --format table
//	srtgram history
//	srtgram doctor
//
// Configuration is read from --config, ~/.config/srtgram/config.toml or
// ./srtgram.toml; run `srtgram config init` to write a sample.
package main
