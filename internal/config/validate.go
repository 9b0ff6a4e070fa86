package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTracking(); err != nil {
		return err
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateTracking() error {
	switch c.Tracking.Detector {
	case "pigo":
	case "command":
		if len(c.Tracking.DetectorCommand) == 0 {
			return errors.New("tracking.detector_command must be set when tracking.detector is \"command\"")
		}
	default:
		return fmt.Errorf("tracking.detector must be \"pigo\" or \"command\", got %q", c.Tracking.Detector)
	}
	if c.Tracking.DetectScale <= 0 || c.Tracking.DetectScale > 1 {
		return errors.New("tracking.detect_scale must be in (0, 1]")
	}
	if c.Tracking.MinConfidence < 0 || c.Tracking.MinConfidence > 1 {
		return errors.New("tracking.min_confidence must be between 0 and 1")
	}
	if c.Tracking.QualityHalf <= 0 {
		return errors.New("tracking.quality_half must be positive")
	}
	if c.Tracking.MinFaceSize <= 0 {
		return errors.New("tracking.min_face_size must be positive")
	}
	return nil
}

func (c *Config) validateSelection() error {
	if err := ensurePositiveMap(map[string]int{
		"selection.clips":       c.Selection.Clips,
		"selection.min_seconds": c.Selection.MinSeconds,
		"selection.max_seconds": c.Selection.MaxSeconds,
	}); err != nil {
		return err
	}
	if c.Selection.MinSeconds >= c.Selection.MaxSeconds {
		return errors.New("selection.min_seconds must be less than selection.max_seconds")
	}
	if c.Selection.UseLLM && c.LLM.APIKey == "" {
		return errors.New("llm.api_key must be set when selection.use_llm is true (or set OPENROUTER_API_KEY)")
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if c.Encoding.CRF < 0 || c.Encoding.CRF > 51 {
		return errors.New("encoding.crf must be between 0 and 51")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
