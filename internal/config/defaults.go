package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			BaseURL:               "https://api.openai.com/v1",
			APIKey:                "",
			Model:                 "gpt-3.5-turbo",
			TimeoutSeconds:        30,
			CategorizeTemperature: 0.2,
			KeywordTemperature:    0.3,
			SummaryTemperature:    0.3,
		},
		Cache: CacheConfig{
			TTLMinutes:           360,
			SweepIntervalMinutes: 30,
			RefreshGrowth:        0.5,
		},
		Tasks: TasksConfig{
			Workers:   4,
			QueueSize: 64,
		},
		Analytics: AnalyticsConfig{
			TimeZone:    "Asia/Seoul",
			TopKeywords: 9,
		},
		Storage: StorageConfig{
			Path:              "~/.config/memoir",
			SQLiteFile:        "memoir.db",
			SQLiteJournalMode: "wal",
		},
		Retention: RetentionConfig{
			Days: 90,
		},
		Privacy: PrivacyConfig{
			RedactDenylisted:   true,
			UseDefaultDenylist: true,
			DenylistDomains:    []string{},
			DenylistRegex:      []string{},
		},
		Logging: LoggingConfig{
			Level:           "info",
			Format:          "text",
			File:            "",
			SlowThresholdMs: 1000,
			AuditLog:        true,
		},
	}
}
