package config

type ObservabilityConfig struct {
	MetricsEnabled     bool   `yaml:"metrics_enabled"`
	MetricsPath        string `yaml:"metrics_path"`
	NewRelicAppName    string `yaml:"newrelic_app_name"`
	NewRelicLicense    string `yaml:"newrelic_license"`
	NewRelicLogForward bool   `yaml:"newrelic_log_forwarding"`
}

func loadObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", true),
		MetricsPath:        getEnv("METRICS_PATH", "/metrics"),
		NewRelicAppName:    getEnv("NEW_RELIC_APP_NAME", "campusrides"),
		NewRelicLicense:    getEnv("NEW_RELIC_LICENSE_KEY", ""),
		NewRelicLogForward: getEnvAsBool("NEW_RELIC_LOG_FORWARDING", false),
	}
}
