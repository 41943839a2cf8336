package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"vtt-feedback/internal/feedback"
)

// Format selects which export files are written.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatBoth Format = "both"
)

// IncludesCSV reports whether a CSV file is requested.
func (f Format) IncludesCSV() bool { return f == FormatCSV || f == FormatBoth }

// IncludesJSON reports whether a JSON file is requested.
func (f Format) IncludesJSON() bool { return f == FormatJSON || f == FormatBoth }

// Config holds all settings for one export run
type Config struct {
	// Runtime
	Environment string `yaml:"environment" validate:"required"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// AWS and source discovery
	AWSRegion      string `yaml:"aws_region" validate:"required"`
	Bucket         string `yaml:"bucket"`
	StackName      string `yaml:"stack_name" validate:"required"`
	StackOutputKey string `yaml:"stack_output_key" validate:"required"`
	Prefix         string `yaml:"prefix" validate:"required"`

	// Event-time window, RFC 3339 or YYYY-MM-DD
	Since string `yaml:"since" validate:"omitempty,eventtime"`
	Until string `yaml:"until" validate:"omitempty,eventtime"`

	// Output
	OutputDir     string `yaml:"output_dir" validate:"required"`
	BaseDir       string `yaml:"base_dir"`
	Format        Format `yaml:"format" validate:"oneof=csv json both"`
	Analyze       bool   `yaml:"analyze"`
	OpenOutputDir bool   `yaml:"open_output_dir"`

	// LoadedFrom lists the sources that contributed, lowest priority first.
	LoadedFrom []string `yaml:"-"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Environment:    "development",
		LogLevel:       "info",
		AWSRegion:      "us-east-1",
		StackName:      "VTT-Feedback",
		StackOutputKey: "FeedbackBucketName",
		Prefix:         "feedback/",
		OutputDir:      "feedback-exports",
		Format:         FormatBoth,
		OpenOutputDir:  true,
	}
}

// applyEnv overlays environment variables on the configuration.
func (c *Config) applyEnv() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.StackName = getEnv("FEEDBACK_STACK_NAME", c.StackName)
	c.StackOutputKey = getEnv("FEEDBACK_STACK_OUTPUT_KEY", c.StackOutputKey)
	c.Prefix = getEnv("FEEDBACK_PREFIX", c.Prefix)
	c.BaseDir = getEnv("FEEDBACK_EXPORT_BASE_DIR", c.BaseDir)
	c.OpenOutputDir = getEnvBool("OPEN_OUTPUT_DIR", c.OpenOutputDir)
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Window returns the parsed event-time bounds. A zero time means unbounded.
func (c *Config) Window() (since, until time.Time) {
	if c.Since != "" {
		since, _ = feedback.ParseTime(c.Since)
	}
	if c.Until != "" {
		until, _ = feedback.ParseTime(c.Until)
		if len(c.Until) == len("2006-01-02") {
			// a bare date includes the whole day
			until = until.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return since, until
}

// ResolveOutputDir returns the absolute output directory. Relative paths are
// joined to BaseDir, or to the working directory when BaseDir is empty.
func (c *Config) ResolveOutputDir() (string, error) {
	if filepath.IsAbs(c.OutputDir) {
		return filepath.Clean(c.OutputDir), nil
	}
	base := c.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine working directory: %w", err)
		}
		base = wd
	}
	return filepath.Abs(filepath.Join(base, c.OutputDir))
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value == "yes"
}
