// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Environment is the deployment environment the service runs in
type Environment int

const (
	EnvDevelopment Environment = iota
	EnvStaging
	EnvProduction
	EnvTest
)

// String returns the short name used in the ENV variable
func (e Environment) String() string {
	switch e {
	case EnvStaging:
		return "staging"
	case EnvProduction:
		return "prod"
	case EnvTest:
		return "test"
	default:
		return "dev"
	}
}

// ParseEnvironment converts the ENV variable into an Environment
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	default:
		return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", s)
	}
}

// Config holds all application configuration
type Config struct {
	Port             string
	Address          string
	Env              Environment
	LogLevel         string
	LogDir           string
	LogRetentionDays int   // Number of days to keep log files
	MaxLogFileSize   int64 // Maximum log file size in bytes
	MaxRequestBody   int64 // Maximum request body size in bytes
	MaxHeaderSize    int64 // Maximum header size in bytes
	MaxUploadSize    int64 // Maximum multipart upload size in bytes
	DataFile         string
	RequireProxy     bool
	RateLimitRate    float64 // Tokens refilled per second per client
	RateLimitCap     int64
	DriftInterval    int // Minutes between dataset drift checks
	MCPEnabled       bool
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	cfg := &Config{
		Port:             getEnvWithDefault("PORT", "8000"),
		Address:          getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:              env,
		LogLevel:         getEnvWithDefault("LOG_LEVEL", ""),
		LogDir:           getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionDays: getIntEnvWithDefault("LOG_RETENTION_DAYS", 28),           // 4 weeks default
		MaxLogFileSize:   getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:   getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:    getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default
		MaxUploadSize:    getInt64EnvWithDefault("MAX_UPLOAD_SIZE", 10485760),    // 10MB default
		DataFile:         getEnvWithDefault("DATA_FILE", "files/sample_drugs.json"),
		RequireProxy:     getBoolEnvWithDefault("REQUIRE_PROXY", false),
		RateLimitRate:    getFloatEnvWithDefault("RATE_LIMIT_RATE", 3),
		RateLimitCap:     getInt64EnvWithDefault("RATE_LIMIT_CAPACITY", 1000),
		DriftInterval:    getIntEnvWithDefault("DRIFT_CHECK_INTERVAL_MINUTES", 60),
		MCPEnabled:       getBoolEnvWithDefault("MCP_ENABLED", true),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if strings.TrimSpace(cfg.LogDir) == "" {
		return fmt.Errorf("invalid LOG_DIR: LOG_DIR cannot be empty")
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxUploadSize, "MAX_UPLOAD_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
	}

	if err := validateLogRetentionDays(cfg.LogRetentionDays); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_DAYS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateDataFile(cfg.DataFile); err != nil {
		return fmt.Errorf("invalid DATA_FILE: %w", err)
	}

	if err := validateRateLimit(cfg.RateLimitRate, cfg.RateLimitCap); err != nil {
		return fmt.Errorf("invalid rate limit: %w", err)
	}

	if cfg.DriftInterval < 1 || cfg.DriftInterval > 24*60 {
		return fmt.Errorf("invalid DRIFT_CHECK_INTERVAL_MINUTES: must be between 1 and 1440, got: %d", cfg.DriftInterval)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" || address == "0.0.0.0" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Check for private network ranges (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable.
// Empty leaves the console level to the environment default.
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return nil
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionDays validates the LOG_RETENTION_DAYS environment variable
func validateLogRetentionDays(days int) error {
	if days <= 0 {
		return fmt.Errorf("LOG_RETENTION_DAYS must be positive, got: %d", days)
	}

	if days > 365 {
		return fmt.Errorf("LOG_RETENTION_DAYS is too large (max 365 days), got: %d", days)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateDataFile validates the DATA_FILE environment variable
func validateDataFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("DATA_FILE cannot be empty")
	}

	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		return fmt.Errorf("DATA_FILE must be a .json file, got: %s", path)
	}

	return nil
}

// validateRateLimit validates RATE_LIMIT_RATE and RATE_LIMIT_CAPACITY
func validateRateLimit(rate float64, capacity int64) error {
	if rate <= 0 {
		return fmt.Errorf("RATE_LIMIT_RATE must be positive, got: %v", rate)
	}

	if capacity <= 0 {
		return fmt.Errorf("RATE_LIMIT_CAPACITY must be positive, got: %d", capacity)
	}

	if rate > float64(capacity) {
		return fmt.Errorf("RATE_LIMIT_RATE (%v) cannot exceed RATE_LIMIT_CAPACITY (%d)", rate, capacity)
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_DAYS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"MAX_UPLOAD_SIZE",
		"DATA_FILE",
		"REQUIRE_PROXY",
		"RATE_LIMIT_RATE",
		"RATE_LIMIT_CAPACITY",
		"DRIFT_CHECK_INTERVAL_MINUTES",
		"MCP_ENABLED",
	}
}
