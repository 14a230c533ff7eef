package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Security SecurityConfig
	Upload   UploadConfig
	Analysis AnalysisConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit     bool
	RateLimitRPS        int
	RateLimitBurst      int
	UploadRatePerMinute int
	AllowedOrigins      []string
	TrustedProxies      []string
}

type UploadConfig struct {
	MaxFileBytes      int64
	MaxRows           int
	AllowedExtensions []string
	MaxFilenameLength int
}

type AnalysisConfig struct {
	SampleSize  int
	CacheDir    string
	Retention   time.Duration
	PreloadFile string
}

// Load reads an optional dotenv file (ENV_FILE, default ".env") and then the
// process environment. Variables already set in the environment win.
func Load() (*Config, error) {
	envFile := getEnvString("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit:     getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:        getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:      getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			UploadRatePerMinute: getEnvInt("SECURITY_UPLOAD_RATE_PER_MINUTE", 10),
			AllowedOrigins:      getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:      getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
		Upload: UploadConfig{
			MaxFileBytes:      getEnvInt64("UPLOAD_MAX_FILE_BYTES", 10<<20),
			MaxRows:           getEnvInt("UPLOAD_MAX_ROWS", 5000),
			AllowedExtensions: getEnvStringSlice("UPLOAD_ALLOWED_EXTENSIONS", []string{".csv", ".xlsx", ".xls", ".gz", ".bz2"}),
			MaxFilenameLength: getEnvInt("UPLOAD_MAX_FILENAME_LENGTH", 255),
		},
		Analysis: AnalysisConfig{
			SampleSize:  getEnvInt("ANALYSIS_SAMPLE_SIZE", 100),
			CacheDir:    getEnvString("ANALYSIS_CACHE_DIR", ".cache"),
			Retention:   getEnvDuration("ANALYSIS_RETENTION", 24*time.Hour),
			PreloadFile: getEnvString("ANALYSIS_PRELOAD_FILE", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	if c.Security.UploadRatePerMinute <= 0 {
		return fmt.Errorf("upload rate per minute must be positive")
	}

	if c.Upload.MaxFileBytes <= 0 {
		return fmt.Errorf("upload max file bytes must be positive")
	}

	if c.Upload.MaxRows <= 0 {
		return fmt.Errorf("upload max rows must be positive")
	}

	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("at least one upload extension must be allowed")
	}

	if c.Analysis.SampleSize <= 0 {
		return fmt.Errorf("analysis sample size must be positive")
	}

	if c.Analysis.Retention <= 0 {
		return fmt.Errorf("analysis retention must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
