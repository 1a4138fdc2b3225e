// File: pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvProjectRoot = "BASE_PATH"
	EnvWorkingRoot = "FORGE_PATH"
	EnvAutoScan    = "AUTO_CHECK"
	EnvBatchSize   = "FORGE_BATCH_SIZE"
	EnvGitTimeout  = "FORGE_GIT_TIMEOUT"
	EnvExclude     = "FORGE_EXCLUDE"
	EnvDebug       = "FORGE_DEBUG"
)

// Artifact names inside the working root.
const (
	InputFileName           = "input.txt"
	OutputFileName          = "output.txt"
	AnonymousOutputFileName = "output-anonymous.txt"
	KeywordsFileName        = "keywords.json"
	IgnoreFileName          = ".forgeignore"
)

const (
	DefaultBatchSize  = 10
	DefaultGitTimeout = 30 * time.Second
)

var (
	ErrInvalidProjectRoot = errors.New("invalid project root")
	ErrInvalidWorkingRoot = errors.New("invalid working root")
)

// DefaultExclude lists the entry names never included in a report.
var DefaultExclude = []string{
	"package-lock.json",
	"node_modules",
	".vscode",
	".git",
	".gitignore",
	".prettierignore",
	"eslint.config.js",
	".env",
	InputFileName,
	OutputFileName,
	AnonymousOutputFileName,
	KeywordsFileName,
}

// Config holds the settings of a single run. It is built once and only read afterwards.
type Config struct {
	ProjectRoot string        // Root whose git history provides previous content.
	WorkingRoot string        // Directory holding the input/output artifacts.
	AutoScan    bool          // Scan the working root instead of reading input.txt.
	BatchSize   int           // Number of walks run concurrently per batch.
	GitTimeout  time.Duration // Upper bound for each git invocation.
	Exclude     []string      // Literal entry names skipped while walking.
	Debug       bool
}

// Load reads the configuration from the environment, after merging envFile
// into it. Variables that are already set win over the file. A missing
// envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		ProjectRoot: getEnv(EnvProjectRoot, "."),
		WorkingRoot: getEnv(EnvWorkingRoot, "./"),
		AutoScan:    os.Getenv(EnvAutoScan) == "true",
		BatchSize:   DefaultBatchSize,
		GitTimeout:  DefaultGitTimeout,
		Exclude:     append([]string(nil), DefaultExclude...),
		Debug:       os.Getenv(EnvDebug) == "true",
	}

	if v := os.Getenv(EnvBatchSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvBatchSize, v, err)
		}
		cfg.BatchSize = n
	}

	if v := os.Getenv(EnvGitTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvGitTimeout, v, err)
		}
		cfg.GitTimeout = d
	}

	if v := os.Getenv(EnvExclude); v != "" {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Exclude = append(cfg.Exclude, name)
			}
		}
	}

	return cfg, nil
}

// Validate checks that both roots exist and are directories, and makes them
// absolute. Non-positive tuning values fall back to their defaults.
func (c *Config) Validate() error {
	root, err := validateDir(c.ProjectRoot)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidProjectRoot, c.ProjectRoot, err)
	}
	c.ProjectRoot = root

	if err := c.ValidateWorkingRoot(); err != nil {
		return err
	}

	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.GitTimeout <= 0 {
		c.GitTimeout = DefaultGitTimeout
	}
	return nil
}

// ValidateWorkingRoot checks only the working root and makes it absolute.
// Commands that never touch the project, such as anonymize, use it instead
// of Validate.
func (c *Config) ValidateWorkingRoot() error {
	root, err := validateDir(c.WorkingRoot)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidWorkingRoot, c.WorkingRoot, err)
	}
	c.WorkingRoot = root
	return nil
}

func (c *Config) InputFile() string { return filepath.Join(c.WorkingRoot, InputFileName) }

func (c *Config) OutputFile() string { return filepath.Join(c.WorkingRoot, OutputFileName) }

func (c *Config) AnonymousOutputFile() string {
	return filepath.Join(c.WorkingRoot, AnonymousOutputFileName)
}

func (c *Config) KeywordsFile() string { return filepath.Join(c.WorkingRoot, KeywordsFileName) }

func (c *Config) IgnoreFile() string { return filepath.Join(c.WorkingRoot, IgnoreFileName) }

func validateDir(path string) (string, error) {
	if path == "" {
		return "", errors.New("path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", errors.New("not a directory")
	}
	return abs, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
