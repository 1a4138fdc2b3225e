// File: pkg/forge/aggregate.go
package forge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"forgecat/pkg/config"
	"forgecat/pkg/ignore"
	"forgecat/pkg/logging"

	"go.uber.org/zap"
)

// ErrInputNotFound is returned in explicit mode when input.txt is missing.
var ErrInputNotFound = errors.New("input file not found")

// Aggregator runs one aggregation over a validated configuration.
type Aggregator struct {
	cfg      *config.Config
	resolver Resolver
	walker   *Walker
	logger   *zap.Logger
}

// NewAggregator wires the exclusion set and the git backed revision source
// for cfg. cfg must have been validated.
func NewAggregator(cfg *config.Config, logger *zap.Logger) (*Aggregator, error) {
	logger = logging.OrNop(logger)

	matcher, err := ignore.Load(cfg.Exclude, cfg.IgnoreFile(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore patterns: %w", err)
	}

	revisions, err := NewGitRevisions(cfg.ProjectRoot, cfg.GitTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up git lookup: %w", err)
	}

	return NewAggregatorWith(cfg, matcher, revisions, logger), nil
}

// NewAggregatorWith builds an Aggregator from explicit collaborators.
func NewAggregatorWith(cfg *config.Config, exclude Excluder, revisions RevisionSource, logger *zap.Logger) *Aggregator {
	logger = logging.OrNop(logger)
	return &Aggregator{
		cfg: cfg,
		resolver: Resolver{
			ProjectRoot: cfg.ProjectRoot,
			WorkingRoot: cfg.WorkingRoot,
		},
		walker: &Walker{
			Exclude:   exclude,
			Revisions: revisions,
			BatchSize: cfg.BatchSize,
			Logger:    logger,
		},
		logger: logger,
	}
}

// Run collects the blocks for the configured mode and writes the report to
// the output file, replacing any previous content. Nothing is written when
// an error is returned. Returned errors are not logged here.
func (a *Aggregator) Run(ctx context.Context) error {
	mode := "External-Improvement (AUTO_CHECK=false)"
	if a.cfg.AutoScan {
		mode = "Self-Improvement (AUTO_CHECK=true)"
	}
	a.logger.Info("Running in mode", zap.String("mode", mode))

	blocks, err := a.Collect(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("file processing interrupted: %w", err)
	}

	output := a.cfg.OutputFile()
	if err := writeToFile(output, []byte(BuildReport(blocks)), 0o644, a.logger); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	a.logger.Info("Output written", zap.String("outputFile", output), zap.Int("blocks", len(blocks)))
	return nil
}

// Collect returns the blocks of the configured mode without writing anything.
func (a *Aggregator) Collect(ctx context.Context) ([]string, error) {
	if a.cfg.AutoScan {
		return a.collectRoot(ctx)
	}
	return a.collectInput(ctx)
}

// collectInput walks every existing entry listed in the input file.
func (a *Aggregator) collectInput(ctx context.Context) ([]string, error) {
	input := a.cfg.InputFile()
	data, err := os.ReadFile(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, input)
		}
		return nil, fmt.Errorf("failed to read input file %s: %w", input, err)
	}

	var tasks []Task
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		absPath := a.resolver.Resolve(line)
		a.logger.Debug("Resolving path", zap.String("entry", line), zap.String("path", absPath))

		if _, err := os.Stat(absPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				a.logger.Warn("Path not found", zap.String("path", absPath))
			} else {
				a.logger.Error("Error validating path", zap.String("path", absPath), zap.Error(err))
			}
			continue
		}

		tasks = append(tasks, func(ctx context.Context) []string {
			return a.walker.Walk(ctx, absPath)
		})
	}

	return Flatten(RunBatches(ctx, tasks, a.cfg.BatchSize)), nil
}

// collectRoot walks the regular files directly inside the working root.
func (a *Aggregator) collectRoot(ctx context.Context) ([]string, error) {
	root := a.cfg.WorkingRoot
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read working root %s: %w", root, err)
	}

	var tasks []Task
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if a.walker.Exclude != nil && a.walker.Exclude.Excludes(name, name, false) {
			a.logger.Debug("Skipping excluded entry", zap.String("name", name))
			continue
		}
		filePath := filepath.Join(root, name)
		tasks = append(tasks, func(ctx context.Context) []string {
			return a.walker.Walk(ctx, filePath)
		})
	}

	return Flatten(RunBatches(ctx, tasks, a.cfg.BatchSize)), nil
}

// writeToFile writes data to a file and logs the success.
func writeToFile(path string, data []byte, perm os.FileMode, logger *zap.Logger) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	logger.Debug("Successfully wrote file", zap.String("path", path))
	return nil
}
