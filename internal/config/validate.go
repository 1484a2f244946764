package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateSegmentation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"llm.timeout_seconds":   c.LLM.TimeoutSeconds,
		"ytdlp.timeout_seconds": c.YTDLP.TimeoutSeconds,
	})
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.Workers <= 0 || c.Analysis.Workers > maxAnalysisWorkers {
		return fmt.Errorf("analysis.workers must be between 1 and %d", maxAnalysisWorkers)
	}
	if c.Analysis.Limit < 0 {
		return errors.New("analysis.limit must be >= 0 (0 analyzes every sentence)")
	}
	if c.Analysis.Enabled && strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set when analysis.enabled is true")
	}
	return nil
}

func (c *Config) validateSegmentation() error {
	switch c.Segmentation.AbbreviationMode {
	case AbbreviationModeOff, AbbreviationModeProtect:
	default:
		return fmt.Errorf("segmentation.abbreviation_mode must be %q or %q, got %q",
			AbbreviationModeOff, AbbreviationModeProtect, c.Segmentation.AbbreviationMode)
	}
	switch c.Segmentation.Attribution {
	case AttributionLinear, AttributionIndexed:
	default:
		return fmt.Errorf("segmentation.attribution must be %q or %q, got %q",
			AttributionLinear, AttributionIndexed, c.Segmentation.Attribution)
	}
	for _, token := range c.Segmentation.ProtectedAbbreviations {
		if !strings.HasSuffix(token, ".") {
			return fmt.Errorf("segmentation.protected_abbreviations entry %q must end with '.'", token)
		}
		if strings.ContainsAny(token, " \t") {
			return fmt.Errorf("segmentation.protected_abbreviations entry %q must be a single token", token)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
