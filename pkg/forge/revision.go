// File: pkg/forge/revision.go
package forge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// RevisionSource provides the last committed content of a file.
// Implementations never fail: every problem degrades to ok == false.
type RevisionSource interface {
	PreviousContent(ctx context.Context, absPath string) (content string, ok bool)
}

// RevisionFunc adapts a plain function to RevisionSource.
type RevisionFunc func(ctx context.Context, absPath string) (string, bool)

// PreviousContent calls f.
func (f RevisionFunc) PreviousContent(ctx context.Context, absPath string) (string, bool) {
	return f(ctx, absPath)
}

// NoRevisions is a RevisionSource that never has previous content.
var NoRevisions RevisionSource = RevisionFunc(func(context.Context, string) (string, bool) {
	return "", false
})

// GitRevisions reads committed content with the git command line, run from
// the project root. Safe for concurrent use.
type GitRevisions struct {
	projectRoot string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGitRevisions creates a git backed RevisionSource for projectRoot.
// A non-positive timeout defaults to 30 seconds.
func NewGitRevisions(projectRoot string, timeout time.Duration, logger *zap.Logger) (*GitRevisions, error) {
	if !filepath.IsAbs(projectRoot) {
		return nil, fmt.Errorf("projectRoot must be absolute: %s", projectRoot)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitRevisions{
		projectRoot: projectRoot,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// PreviousContent returns the content of absPath at HEAD with trailing
// whitespace removed. Files outside the project root, untracked files and
// git failures all report ok == false.
func (g *GitRevisions) PreviousContent(ctx context.Context, absPath string) (string, bool) {
	relPath, inside := repoRelative(g.projectRoot, absPath)
	if !inside {
		g.logger.Warn("Skipping git lookup for file outside repository", zap.String("filePath", absPath))
		return "", false
	}

	// Literal magic keeps names such as "[ab].txt" from matching as globs.
	tracked, err := g.run(ctx, "ls-files", "--", ":(literal)"+relPath)
	if err != nil {
		g.logger.Error("Failed to get previous committed content",
			zap.String("filePath", absPath),
			zap.Error(err))
		return "", false
	}
	if strings.TrimSpace(tracked) == "" {
		g.logger.Debug("File is not tracked", zap.String("filePath", absPath))
		return "", false
	}

	// "./" keeps the path relative to the project root when it is a
	// subdirectory of the repository.
	content, err := g.run(ctx, "show", "HEAD:./"+relPath)
	if err != nil {
		g.logger.Error("Failed to get previous committed content",
			zap.String("filePath", absPath),
			zap.Error(err))
		return "", false
	}

	content = strings.TrimRightFunc(content, unicode.IsSpace)
	if content == "" {
		return "", false
	}
	return content, true
}

// run executes a git command in the project root and returns stdout.
func (g *GitRevisions) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.projectRoot
	// Bounds the wait for output pipes held open by children of a killed git.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("git %s: timeout after %v", args[0], g.timeout)
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// repoRelative returns absPath relative to root in slash form, and whether
// it lies inside root.
func repoRelative(root, absPath string) (string, bool) {
	rel, err := filepath.Rel(root, absPath)
	if err != nil || filepath.IsAbs(rel) {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
