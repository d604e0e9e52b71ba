// Copyright 2025 LexiAssist Backend Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	// ErrMissingRequiredField is returned when a required configuration field is missing
	ErrMissingRequiredField = errors.New("missing required configuration field")
	// ErrInvalidConfigValue is returned when a configuration value is invalid
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Config represents the complete application configuration
type Config struct {
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Groq     GroqConfig     `mapstructure:"groq"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// GeminiConfig contains the storybook model provider configuration
type GeminiConfig struct {
	APIKey string `mapstructure:"apikey"`
	Model  string `mapstructure:"model"`
}

// GroqConfig contains the word-detective model provider configuration
type GroqConfig struct {
	APIKey string `mapstructure:"apikey"`
	Model  string `mapstructure:"model"`
}

// RetryConfig tunes the model gateway retry loop
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

// DatabaseConfig contains the persistence configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig contains the optional shared round-cache configuration.
// An empty address selects the in-process cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig contains session token configuration
type AuthConfig struct {
	Secret          string `mapstructure:"secret"`
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes"`
	CookieSecure    bool   `mapstructure:"cookie_secure"`
}

// ServerConfig contains the HTTP listener configuration
type ServerConfig struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	FrontendOrigins []string `mapstructure:"frontend_origins"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// LoadOptions contains options for configuration loading
type LoadOptions struct {
	ConfigPath       string
	Environment      string
	ValidateRequired bool
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over config file values
func Load(configPath string) (*Config, error) {
	return LoadWithOptions(LoadOptions{
		ConfigPath:       configPath,
		Environment:      getEnvironment(),
		ValidateRequired: true,
	})
}

// LoadWithOptions loads configuration with additional options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Set configuration file path
	if err := setConfigFile(v, opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("failed to set config file: %w", err)
	}

	// Enable environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("LEXIASSIST")

	// Read configuration file. Running on defaults plus environment
	// variables alone is supported.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && v.ConfigFileUsed() != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Set explicit environment variable mappings
	setEnvironmentMappings(v)

	// Unmarshal configuration
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if opts.ValidateRequired {
		if err := validateConfig(&config); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Model provider defaults. API keys have no default: an absent key is a
	// legal state in which generation degrades to fallback content.
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("groq.model", "llama-3.1-8b-instant")

	// Retry defaults
	v.SetDefault("retry.max_attempts", 2)
	v.SetDefault("retry.backoff", "1s")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./lexiassist.db")

	// Redis defaults (disabled)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Auth defaults
	v.SetDefault("auth.secret", "dev_secret")
	v.SetDefault("auth.token_ttl_minutes", 60)
	v.SetDefault("auth.cookie_secure", false)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.frontend_origins", []string{"http://localhost:5173"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// setConfigFile sets the configuration file path with fallback logic
func setConfigFile(v *viper.Viper, configPath string) error {
	// Check for CONFIG_PATH environment variable
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return fmt.Errorf("config file specified by CONFIG_PATH does not exist: %s", envPath)
		}
		v.SetConfigFile(envPath)
		return nil
	}

	// Use provided config path
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		return nil
	}

	// Default fallback locations; absence is fine.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return nil
}

// setEnvironmentMappings sets explicit environment variable mappings
func setEnvironmentMappings(v *viper.Viper) {
	// Map common environment variables
	envMappings := map[string]string{
		"GEMINI_API_KEY":              "gemini.apikey",
		"GEMINI_MODEL":                "gemini.model",
		"GROQ_API_KEY":                "groq.apikey",
		"GROQ_MODEL":                  "groq.model",
		"DATABASE_DRIVER":             "database.driver",
		"DATABASE_DSN":                "database.dsn",
		"REDIS_ADDR":                  "redis.addr",
		"REDIS_PASSWORD":              "redis.password",
		"SECRET_KEY":                  "auth.secret",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "auth.token_ttl_minutes",
		"PORT":                        "server.port",
		"LOG_LEVEL":                   "logging.level",
		"LOG_FORMAT":                  "logging.format",
		"LOG_OUTPUT":                  "logging.output",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}

	// Comma-separated list of allowed browser origins.
	if origins := os.Getenv("FRONTEND_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		v.Set("server.frontend_origins", parts)
	}
}

// validateConfig validates the configuration for required fields and valid values
func validateConfig(config *Config) error {
	var errors []ValidationError

	// Validate retry tuning
	if config.Retry.MaxAttempts <= 0 {
		errors = append(errors, ValidationError{
			Field:   "retry.max_attempts",
			Message: "max_attempts must be greater than 0",
		})
	}

	if config.Retry.Backoff < 0 {
		errors = append(errors, ValidationError{
			Field:   "retry.backoff",
			Message: "backoff must be greater than or equal to 0",
		})
	}

	// Validate persistence
	validDrivers := []string{"postgres", "sqlite"}
	if !contains(validDrivers, config.Database.Driver) {
		errors = append(errors, ValidationError{
			Field:   "database.driver",
			Message: fmt.Sprintf("database driver must be one of: %s", strings.Join(validDrivers, ", ")),
		})
	}

	if config.Database.DSN == "" {
		errors = append(errors, ValidationError{
			Field:   "database.dsn",
			Message: "database DSN is required",
		})
	}

	// Validate auth
	if config.Auth.Secret == "" {
		errors = append(errors, ValidationError{
			Field:   "auth.secret",
			Message: "auth secret is required. Set via config file or SECRET_KEY environment variable",
		})
	}

	if config.Auth.TokenTTLMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "auth.token_ttl_minutes",
			Message: "token_ttl_minutes must be greater than 0",
		})
	}

	// Validate server
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	// Validate enum values
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Logging.Format) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	// Return all validation errors
	if len(errors) > 0 {
		var errorMessages []string
		for _, err := range errors {
			errorMessages = append(errorMessages, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errorMessages, "\n"))
	}

	return nil
}

// TokenTTL returns the configured session token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// MaskSensitiveValues returns a copy of the config with sensitive values masked
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c

	// Mask sensitive fields
	if masked.Gemini.APIKey != "" {
		masked.Gemini.APIKey = maskValue(masked.Gemini.APIKey)
	}
	if masked.Groq.APIKey != "" {
		masked.Groq.APIKey = maskValue(masked.Groq.APIKey)
	}
	if masked.Auth.Secret != "" {
		masked.Auth.Secret = maskValue(masked.Auth.Secret)
	}
	if masked.Redis.Password != "" {
		masked.Redis.Password = maskValue(masked.Redis.Password)
	}
	if masked.Database.DSN != "" {
		masked.Database.DSN = maskValue(masked.Database.DSN)
	}

	return &masked
}

// maskValue masks sensitive values, showing only the first 8 characters
func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// getEnvironment returns the current environment (development, production, etc.)
func getEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "development"
}

// WatchConfig enables configuration hot-reloading for development
func WatchConfig(configPath string, callback func(*Config)) error {
	v := viper.New()

	// Set up configuration
	if err := setConfigFile(v, configPath); err != nil {
		return err
	}

	// Enable watching
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Printf("Config file changed: %s\n", e.Name)

		// Reload configuration
		config, err := LoadWithOptions(LoadOptions{
			ConfigPath:       configPath,
			Environment:      getEnvironment(),
			ValidateRequired: true,
		})
		if err != nil {
			fmt.Printf("Failed to reload config: %v\n", err)
			return
		}

		// Call callback with new config
		callback(config)
	})

	return nil
}
