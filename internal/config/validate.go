package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	if err := c.validateBudget(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.BarcodeTimeoutMs <= 0 {
		return errors.New("session.barcode_timeout_ms must be positive")
	}
	if c.Session.OCRTimeoutMs <= 0 {
		return errors.New("session.ocr_timeout_ms must be positive")
	}
	if c.Session.TotalTimeoutMs <= 0 {
		return errors.New("session.total_timeout_ms must be positive")
	}
	if c.Session.TransitionBudgetMs <= 0 {
		return errors.New("session.transition_budget_ms must be positive")
	}
	if c.Session.TotalTimeoutMs < c.Session.BarcodeTimeoutMs {
		return fmt.Errorf("session.total_timeout_ms (%d) must cover the barcode phase (%d)",
			c.Session.TotalTimeoutMs, c.Session.BarcodeTimeoutMs)
	}
	if c.Session.ConfidenceThreshold < 0 || c.Session.ConfidenceThreshold > 1 {
		return errors.New("session.confidence_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxRetries < 0 {
		return errors.New("retry.max_retries must not be negative")
	}
	if c.Retry.BaseDelayMs <= 0 {
		return errors.New("retry.base_delay_ms must be positive")
	}
	if c.Retry.MaxDelayMs < c.Retry.BaseDelayMs {
		return fmt.Errorf("retry.max_delay_ms (%d) must be at least retry.base_delay_ms (%d)",
			c.Retry.MaxDelayMs, c.Retry.BaseDelayMs)
	}
	if c.Retry.Multiplier < 1 {
		return errors.New("retry.multiplier must be at least 1")
	}
	return nil
}

func (c *Config) validateQuality() error {
	if c.Quality.WindowSize <= 0 {
		return errors.New("quality.window_size must be positive")
	}
	if c.Quality.MinSamples <= 0 || c.Quality.MinSamples > c.Quality.WindowSize {
		return fmt.Errorf("quality.min_samples must be between 1 and quality.window_size (%d)", c.Quality.WindowSize)
	}
	if c.Quality.InsufficientStreak <= 0 {
		return errors.New("quality.insufficient_streak must be positive")
	}
	for _, weight := range []struct {
		name  string
		value float64
	}{
		{"quality.blur_weight", c.Quality.BlurWeight},
		{"quality.brightness_weight", c.Quality.BrightnessWeight},
		{"quality.doc_weight", c.Quality.DocWeight},
	} {
		if weight.value < 0 {
			return fmt.Errorf("%s must not be negative", weight.name)
		}
	}
	if c.Quality.BlurWeight+c.Quality.BrightnessWeight+c.Quality.DocWeight <= 0 {
		return errors.New("quality weights must not all be zero")
	}
	return nil
}

func (c *Config) validateBudget() error {
	if c.Budget.MaxMemoryDeltaMB <= 0 {
		return errors.New("budget.max_memory_delta_mb must be positive")
	}
	if c.Budget.MaxCPUPercent <= 0 || c.Budget.MaxCPUPercent > 100 {
		return errors.New("budget.max_cpu_percent must be between 1 and 100")
	}
	return nil
}
