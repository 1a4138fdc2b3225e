// File: pkg/forge/walker.go
package forge

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"forgecat/pkg/logging"

	"go.uber.org/zap"
)

// Excluder decides whether a directory entry is skipped.
type Excluder interface {
	Excludes(name, relPath string, isDir bool) bool
}

// Walker expands files and directories into formatted blocks.
type Walker struct {
	Exclude   Excluder
	Revisions RevisionSource
	BatchSize int
	Logger    *zap.Logger
}

// Walk returns the blocks for path. Directories expand to their non-excluded
// children in listing order; files yield their current block followed by
// their previous committed block when one exists. Failures never escape:
// they are logged and replaced by a single error block.
func (w *Walker) Walk(ctx context.Context, absPath string) []string {
	return w.walk(ctx, absPath, "")
}

func (w *Walker) walk(ctx context.Context, absPath, relPath string) []string {
	logger := w.logger()

	info, err := os.Stat(absPath)
	if err != nil {
		logger.Error("Error processing path", zap.String("path", absPath), zap.Error(err))
		return []string{ErrorBlock(absPath)}
	}

	switch {
	case info.IsDir():
		return w.walkDir(ctx, absPath, relPath)
	case info.Mode().IsRegular():
		return w.processFile(ctx, absPath, info)
	default:
		logger.Debug("Skipping special file", zap.String("path", absPath), zap.Stringer("mode", info.Mode()))
		return nil
	}
}

func (w *Walker) walkDir(ctx context.Context, dir, relDir string) []string {
	logger := w.logger()

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Error("Error reading directory", zap.String("path", dir), zap.Error(err))
		return []string{ErrorBlock(dir)}
	}

	var tasks []Task
	for _, entry := range entries {
		name := entry.Name()
		childRel := path.Join(relDir, name)
		if w.Exclude != nil && w.Exclude.Excludes(name, childRel, entry.IsDir()) {
			logger.Debug("Skipping excluded entry", zap.String("path", filepath.Join(dir, name)))
			continue
		}
		childPath := filepath.Join(dir, name)
		tasks = append(tasks, func(ctx context.Context) []string {
			return w.walk(ctx, childPath, childRel)
		})
	}

	return Flatten(RunBatches(ctx, tasks, w.BatchSize))
}

func (w *Walker) processFile(ctx context.Context, filePath string, info os.FileInfo) []string {
	logger := w.logger()

	if info.Size() == 0 {
		logger.Warn("Skipping empty file", zap.String("filePath", filePath))
		return nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		logger.Error("Error processing file", zap.String("filePath", filePath), zap.Error(err))
		return []string{ErrorBlock(filePath)}
	}

	blocks := []string{FormatCurrent(filePath, string(content))}

	revisions := w.Revisions
	if revisions == nil {
		revisions = NoRevisions
	}
	if previous, ok := revisions.PreviousContent(ctx, filePath); ok {
		blocks = append(blocks, FormatPrevious(filePath, previous))
	}

	logger.Info("Processed file", zap.String("filePath", filePath), zap.Int("blocks", len(blocks)))
	return blocks
}

func (w *Walker) logger() *zap.Logger {
	return logging.OrNop(w.Logger)
}
