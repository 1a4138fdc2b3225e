// File: pkg/forge/format.go
package forge

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	quotePrefix      = "- "
	reportStart      = "START\n---\n"
	reportEnd        = "---\nEND\n"
	errorBlockFormat = "[ERROR] Unable to process path: %s"
)

// FormatCurrent renders the current content of the file at path.
func FormatCurrent(path, content string) string {
	return formatBlock(filepath.Base(path), content)
}

// FormatPrevious renders the last committed content of the file at path.
func FormatPrevious(path, content string) string {
	return formatBlock("Previous Committed - "+filepath.Base(path), content)
}

// ErrorBlock is emitted in place of a path that could not be processed.
func ErrorBlock(path string) string {
	return fmt.Sprintf(errorBlockFormat, path)
}

// BuildReport frames the blocks with the start and end markers.
func BuildReport(blocks []string) string {
	parts := make([]string, 0, len(blocks)+2)
	parts = append(parts, reportStart)
	parts = append(parts, blocks...)
	parts = append(parts, reportEnd)
	return strings.Join(parts, "\n")
}

func formatBlock(label, content string) string {
	return fmt.Sprintf("----> [%s]:\n\n%s\n\n", label, quote(strings.TrimSpace(content)))
}

// quote prefixes every line of s with quotePrefix.
func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = quotePrefix + line
	}
	return strings.Join(lines, "\n")
}
