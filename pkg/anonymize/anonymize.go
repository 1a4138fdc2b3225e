// Package anonymize rewrites a finished report, replacing configured
// keywords with neutral placeholders.
package anonymize

import (
	"errors"
	"fmt"
	"os"

	"forgecat/pkg/logging"

	"go.uber.org/zap"
)

// ErrReportNotFound is returned when the report to anonymize does not exist.
var ErrReportNotFound = errors.New("output file not found")

// LoadKeywords reads the keyword file at path. A missing or unreadable file
// is logged and yields an empty rule set, which turns anonymization into a
// plain copy.
func LoadKeywords(path string, logger *zap.Logger) *Keywords {
	logger = logging.OrNop(logger)

	words, skipped, err := ReadKeywordsFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("No keywords file found. Proceeding without anonymization.", zap.String("file", path))
		} else {
			logger.Error("Failed to load keywords file", zap.String("file", path), zap.Error(err))
		}
		return NewKeywords(nil)
	}
	for _, word := range skipped {
		logger.Warn("Skipping keyword with non-scalar replacement", zap.String("file", path), zap.String("keyword", word))
	}

	logger.Info("Keywords loaded successfully for anonymization.", zap.Int("count", len(words)))
	return NewKeywords(words)
}

// Run reads the report at input, applies keywords and writes the result to
// output. input is never modified. Returned errors are not logged here.
func Run(input, output string, keywords *Keywords, logger *zap.Logger) error {
	logger = logging.OrNop(logger)

	data, err := os.ReadFile(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrReportNotFound, input)
		}
		return fmt.Errorf("error anonymizing output: %w", err)
	}
	logger.Info("Original output file read successfully.", zap.String("file", input))

	if err := os.WriteFile(output, []byte(keywords.Apply(string(data))), 0o644); err != nil {
		return fmt.Errorf("error anonymizing output: failed to write %s: %w", output, err)
	}

	logger.Info("Anonymized output written", zap.String("file", output), zap.Int("keywords", keywords.Len()))
	return nil
}
