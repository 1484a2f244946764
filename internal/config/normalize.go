package config

import (
	"fmt"
	"os"
	"strings"
)

// API key environment fallbacks, checked in order.
var llmKeyEnvVars = []string{"SRTGRAM_LLM_API_KEY", "OPENROUTER_API_KEY"}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeAnalysis()
	c.normalizeSegmentation()
	c.normalizeYTDLP()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, name := range llmKeyEnvVars {
			if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeAnalysis() {
	c.Analysis.TargetLanguage = strings.TrimSpace(c.Analysis.TargetLanguage)
	if c.Analysis.TargetLanguage == "" {
		c.Analysis.TargetLanguage = defaultTargetLanguage
	}
	if c.Analysis.Workers <= 0 {
		c.Analysis.Workers = defaultAnalysisWorkers
	}
}

func (c *Config) normalizeSegmentation() {
	c.Segmentation.AbbreviationMode = strings.ToLower(strings.TrimSpace(c.Segmentation.AbbreviationMode))
	if c.Segmentation.AbbreviationMode == "" {
		c.Segmentation.AbbreviationMode = defaultAbbreviationMode
	}
	c.Segmentation.Attribution = strings.ToLower(strings.TrimSpace(c.Segmentation.Attribution))
	if c.Segmentation.Attribution == "" {
		c.Segmentation.Attribution = defaultAttribution
	}
	if len(c.Segmentation.ProtectedAbbreviations) == 0 {
		return
	}
	tokens := make([]string, 0, len(c.Segmentation.ProtectedAbbreviations))
	seen := make(map[string]struct{}, len(c.Segmentation.ProtectedAbbreviations))
	for _, token := range c.Segmentation.ProtectedAbbreviations {
		normalized := strings.ToLower(strings.TrimSpace(token))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		tokens = append(tokens, normalized)
	}
	c.Segmentation.ProtectedAbbreviations = tokens
}

func (c *Config) normalizeYTDLP() {
	c.YTDLP.Binary = strings.TrimSpace(c.YTDLP.Binary)
	if c.YTDLP.Binary == "" {
		c.YTDLP.Binary = defaultYTDLPBinary
	}
	c.YTDLP.SubLang = strings.ToLower(strings.TrimSpace(c.YTDLP.SubLang))
	if c.YTDLP.SubLang == "" {
		c.YTDLP.SubLang = defaultYTDLPSubLang
	}
	if c.YTDLP.TimeoutSeconds <= 0 {
		c.YTDLP.TimeoutSeconds = defaultYTDLPTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "pretty":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
