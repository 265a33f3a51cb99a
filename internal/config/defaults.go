package config

const (
	defaultDataDir = "~/.local/share/idlens"
	defaultLogDir  = "~/.local/share/idlens/logs"

	defaultBarcodeTimeoutMs    = 3000
	defaultOCRTimeoutMs        = 2000
	defaultTotalTimeoutMs      = 4000
	defaultTransitionBudgetMs  = 200
	defaultConfidenceThreshold = 0.8

	defaultMaxRetries  = 2
	defaultBaseDelayMs = 100
	defaultMaxDelayMs  = 1000
	defaultMultiplier  = 2.0

	defaultQualityWindow     = 10
	defaultQualityMinSamples = 3
	defaultQualityStreak     = 5
	defaultBlurWeight        = 0.4
	defaultBrightnessWeight  = 0.2
	defaultDocWeight         = 0.4

	defaultMaxMemoryDeltaMB = 50
	defaultMaxCPUPercent    = 60

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Session: Session{
			BarcodeTimeoutMs:    defaultBarcodeTimeoutMs,
			OCRTimeoutMs:        defaultOCRTimeoutMs,
			TotalTimeoutMs:      defaultTotalTimeoutMs,
			TransitionBudgetMs:  defaultTransitionBudgetMs,
			ConfidenceThreshold: defaultConfidenceThreshold,
			EnableFallback:      true,
		},
		Retry: Retry{
			MaxRetries:  defaultMaxRetries,
			BaseDelayMs: defaultBaseDelayMs,
			MaxDelayMs:  defaultMaxDelayMs,
			Multiplier:  defaultMultiplier,
		},
		Quality: Quality{
			WindowSize:         defaultQualityWindow,
			MinSamples:         defaultQualityMinSamples,
			InsufficientStreak: defaultQualityStreak,
			BlurWeight:         defaultBlurWeight,
			BrightnessWeight:   defaultBrightnessWeight,
			DocWeight:          defaultDocWeight,
		},
		Budget: Budget{
			MaxMemoryDeltaMB: defaultMaxMemoryDeltaMB,
			MaxCPUPercent:    defaultMaxCPUPercent,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
