package config

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader builds a Config from, lowest priority first: defaults, an optional
// YAML file, environment variables and command-line flags.
type Loader struct {
	// EnvFiles are loaded into the process environment when present.
	// Variables that are already set are not overridden.
	EnvFiles []string

	// Output receives flag usage text.
	Output io.Writer
}

// NewLoader creates a loader that reads .env from the working directory.
func NewLoader() *Loader {
	return &Loader{
		EnvFiles: []string{".env"},
		Output:   os.Stderr,
	}
}

// cliFlags mirrors the flag set so only flags given explicitly override
// lower-priority sources.
type cliFlags struct {
	bucket     string
	outputDir  string
	analyze    bool
	format     string
	since      string
	until      string
	configFile string
}

// Load parses args (without the program name) and returns a validated Config.
// flag.ErrHelp is returned unchanged when -h/--help was requested.
func (l *Loader) Load(args []string) (*Config, error) {
	for _, f := range l.EnvFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	fs, flags := newFlagSet(l.Output)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg := Default()
	cfg.LoadedFrom = append(cfg.LoadedFrom, "defaults")

	configFile := flags.configFile
	if configFile == "" {
		configFile = os.Getenv("FEEDBACK_EXPORT_CONFIG")
	}
	if configFile != "" {
		if err := loadFile(configFile, cfg); err != nil {
			return nil, err
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, configFile)
	}

	cfg.applyEnv()
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bucket":
			cfg.Bucket = flags.bucket
		case "output-dir":
			cfg.OutputDir = flags.outputDir
		case "analyze":
			cfg.Analyze = flags.analyze
		case "format":
			cfg.Format = Format(flags.format)
		case "since":
			cfg.Since = flags.since
		case "until":
			cfg.Until = flags.until
		}
	})
	cfg.LoadedFrom = append(cfg.LoadedFrom, "flags")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newFlagSet(output io.Writer) (*flag.FlagSet, *cliFlags) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("feedback-export", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&f.bucket, "bucket", "", "S3 bucket name (otherwise auto-detected)")
	fs.StringVar(&f.outputDir, "output-dir", "feedback-exports", "Output directory")
	fs.BoolVar(&f.analyze, "analyze", false, "Show analysis")
	fs.StringVar(&f.format, "format", string(FormatBoth), "Export format: csv, json or both")
	fs.StringVar(&f.since, "since", "", "Only include feedback submitted at or after this time")
	fs.StringVar(&f.until, "until", "", "Only include feedback submitted at or before this time")
	fs.StringVar(&f.configFile, "config", "", "Optional YAML configuration file")

	return fs, f
}

// loadFile decodes a YAML file over cfg. Keys absent from the file keep
// their current values.
func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
