package reportgen

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
)

// Config contains all configuration options for report generation
type Config struct {
	// CacheMaxSize is the maximum number of template sources to cache. 0 disables caching.
	CacheMaxSize int
	// CacheTTL is the time-to-live for cached sources. 0 means no expiration.
	CacheTTL time.Duration
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// MaxBlockDepth limits how deeply repeating blocks may nest
	MaxBlockDepth int
	// StrictMode turns unresolved tag keys into errors instead of empty output
	StrictMode bool
	// Language is the BCP 47 tag used to format values
	Language string
	// DateFormat is the layout used for time.Time values
	DateFormat string
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CacheMaxSize:  32,
		CacheTTL:      0,
		LogLevel:      "info",
		MaxBlockDepth: 32,
		StrictMode:    false,
		Language:      "en",
		DateFormat:    "2006-01-02",
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	if val := os.Getenv("REPORTGEN_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}

	if val := os.Getenv("REPORTGEN_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CacheTTL = duration
		}
	}

	if val := os.Getenv("REPORTGEN_LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToLower(val)
	}

	if val := os.Getenv("REPORTGEN_MAX_BLOCK_DEPTH"); val != "" {
		if depth, err := strconv.Atoi(val); err == nil {
			config.MaxBlockDepth = depth
		}
	}

	if val := os.Getenv("REPORTGEN_STRICT_MODE"); val != "" {
		config.StrictMode = parseBool(val)
	}

	if val := os.Getenv("REPORTGEN_LANGUAGE"); val != "" {
		config.Language = val
	}

	if val := os.Getenv("REPORTGEN_DATE_FORMAT"); val != "" {
		config.DateFormat = val
	}

	return config
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	if config.MaxBlockDepth == 0 {
		config.MaxBlockDepth = defaults.MaxBlockDepth
	}

	if config.Language == "" {
		config.Language = defaults.Language
	}

	if config.DateFormat == "" {
		config.DateFormat = defaults.DateFormat
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.MaxBlockDepth <= 0 {
		return errors.New("max block depth must be positive")
	}

	if _, err := language.Parse(c.Language); err != nil {
		return errors.New("invalid language: " + c.Language)
	}

	return nil
}

// LanguageTag returns the parsed Language, falling back to English
func (c *Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// GetGlobalConfig returns a copy of the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// outside the lock: the logger reads the config back
	UpdateLoggerFromConfig()
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
