// Package language maps language codes and names used in configuration to
// the forms yt-dlp and the LLM prompt expect: ISO 639-1 codes for subtitle
// downloads and English display names for explanations.
package language
