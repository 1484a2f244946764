package config

const (
	defaultOutputDir         = "~/srtgram"
	defaultDataDir           = "~/.local/share/srtgram"
	defaultLogDir            = "~/.local/share/srtgram/logs"
	defaultLLMBaseURL        = "http://localhost:11434/v1/chat/completions"
	defaultLLMModel          = "gemma3:27b"
	defaultLLMReferer        = "https://github.com/srtgram/srtgram"
	defaultLLMTitle          = "srtgram"
	defaultLLMTimeoutSeconds = 120
	defaultTargetLanguage    = "Japanese"
	defaultAnalysisWorkers   = 4
	defaultAttribution       = AttributionLinear
	defaultAbbreviationMode  = AbbreviationModeOff
	defaultYTDLPBinary       = "yt-dlp"
	defaultYTDLPSubLang      = "en"
	defaultYTDLPTimeout      = 300
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	maxAnalysisWorkers       = 32
)

// Segmentation enum values.
const (
	AbbreviationModeOff     = "off"
	AbbreviationModeProtect = "protect"
	AttributionLinear       = "linear"
	AttributionIndexed      = "indexed"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Analysis: Analysis{
			Enabled:        true,
			TargetLanguage: defaultTargetLanguage,
			Workers:        defaultAnalysisWorkers,
		},
		Segmentation: Segmentation{
			AbbreviationMode: defaultAbbreviationMode,
			Attribution:      defaultAttribution,
		},
		YTDLP: YTDLP{
			Binary:         defaultYTDLPBinary,
			SubLang:        defaultYTDLPSubLang,
			TimeoutSeconds: defaultYTDLPTimeout,
			Thumbnail:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
