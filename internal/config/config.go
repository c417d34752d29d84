package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App           *AppConfig           `yaml:"app"`
	Database      *DatabaseConfig      `yaml:"database"`
	Redis         *RedisConfig         `yaml:"redis"`
	Email         *EmailConfig         `yaml:"email"`
	Push          *PushConfig          `yaml:"push"`
	Storage       *StorageConfig       `yaml:"storage"`
	WebSocket     *WebSocketConfig     `yaml:"websocket"`
	Events        *EventsConfig        `yaml:"events"`
	Auth          *AuthConfig          `yaml:"auth"`
	Observability *ObservabilityConfig `yaml:"observability"`
	Rides         *RidesConfig         `yaml:"rides"`
	Security      *SecurityConfig      `yaml:"security"`
}

type AppConfig struct {
	Name        string        `yaml:"name"`
	Version     string        `yaml:"version"`
	Environment string        `yaml:"environment"`
	Port        int           `yaml:"port"`
	Host        string        `yaml:"host"`
	BaseURL     string        `yaml:"base_url"`
	Debug       bool          `yaml:"debug"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type SecurityConfig struct {
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
	IdempotencyTTL     time.Duration `yaml:"idempotency_ttl"`
}

func Load() (*Config, error) {
	config := &Config{
		App:           loadAppConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Email:         loadEmailConfig(),
		Push:          loadPushConfig(),
		Storage:       loadStorageConfig(),
		WebSocket:     loadWebSocketConfig(),
		Events:        loadEventsConfig(),
		Auth:          loadAuthConfig(),
		Observability: loadObservabilityConfig(),
		Rides:         loadRidesConfig(),
		Security:      loadSecurityConfig(),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Storage.Provider {
	case "local", "aws", "gcp":
	default:
		return fmt.Errorf("unsupported storage provider %q", c.Storage.Provider)
	}
	if c.Storage.Provider == "local" && c.Storage.Local.SigningKey == "" {
		if c.App.IsProduction() {
			return fmt.Errorf("STORAGE_LOCAL_SIGNING_KEY is required when STORAGE_PROVIDER=local")
		}
		c.Storage.Local.SigningKey = "development-upload-key"
	}

	switch c.Auth.Provider {
	case "firebase", "jwt":
	default:
		return fmt.Errorf("unsupported auth provider %q", c.Auth.Provider)
	}
	if c.Auth.Provider == "jwt" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_PROVIDER=jwt")
	}

	switch c.Events.Broker {
	case "", "none", "kafka", "rabbitmq", "sns":
	default:
		return fmt.Errorf("unsupported events broker %q", c.Events.Broker)
	}

	switch c.Email.Provider {
	case "log", "smtp":
	case "resend":
		if c.Email.Resend.APIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
		}
	default:
		return fmt.Errorf("unsupported email provider %q", c.Email.Provider)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("MONGODB_DATABASE must not be empty")
	}

	return nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "CampusRides"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvAsInt("APP_PORT", 8080),
		Host:        getEnv("APP_HOST", "0.0.0.0"),
		BaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
		Debug:       getEnvAsBool("APP_DEBUG", true),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		ReadTimeout: getEnvAsDuration("APP_READ_TIMEOUT", 15*time.Second),
		IdleTimeout: getEnvAsDuration("APP_IDLE_TIMEOUT", 60*time.Second),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		IdempotencyTTL:     getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Addr is the listen address of the HTTP server.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
