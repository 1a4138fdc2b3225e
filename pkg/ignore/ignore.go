// Package ignore decides which directory entries are left out of a report.
// Entries are excluded by literal name, or by gitignore-style patterns read
// from an optional ignore file.
package ignore

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Precompiled regular expressions used in pattern parsing.
var (
	doubleStarMiddlePattern   = regexp.MustCompile(`/\*\*/`)
	doubleStarTrailingPattern = regexp.MustCompile(`/\*\*$`)
	doubleStarLeadingPattern  = regexp.MustCompile(`^\*\*/`)
	singleStarPattern         = regexp.MustCompile(`\*`)
)

// IgnorePattern encapsulates a compiled regular expression pattern,
// a negation flag, and metadata about the pattern's origin.
type IgnorePattern struct {
	Pattern *regexp.Regexp // Compiled regular expression for the pattern.
	Negate  bool           // Indicates if the pattern is a negation (starts with '!').
	Line    string         // Original pattern line.
	LineNo  int            // Line number in the source (1-based).
}

// Matcher is the exclusion set of a run.
type Matcher struct {
	names    map[string]struct{}
	patterns []*IgnorePattern
	logger   *zap.Logger
}

// New creates a Matcher excluding the given literal names.
func New(names []string, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Matcher{
		names:  make(map[string]struct{}, len(names)),
		logger: logger,
	}
	for _, name := range names {
		m.names[name] = struct{}{}
	}
	return m
}

// Load creates a Matcher from literal names plus the patterns in ignoreFile.
// A missing ignoreFile only yields the literal names.
func Load(names []string, ignoreFile string, logger *zap.Logger) (*Matcher, error) {
	m := New(names, logger)
	if ignoreFile == "" {
		return m, nil
	}
	if err := m.CompileIgnoreFile(ignoreFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return m, nil
}

// CompileIgnoreLines compiles a set of ignore pattern lines and adds them to the Matcher.
func (m *Matcher) CompileIgnoreLines(lines ...string) {
	for i, line := range lines {
		pattern, negate := parsePatternLine(line)
		if pattern == nil {
			continue
		}
		ip := &IgnorePattern{
			Pattern: pattern,
			Negate:  negate,
			Line:    line,
			LineNo:  i + 1,
		}
		m.patterns = append(m.patterns, ip)
		m.logger.Debug("Compiled ignore pattern",
			zap.Int("lineNo", ip.LineNo),
			zap.String("pattern", ip.Line),
			zap.Bool("negate", ip.Negate))
	}
}

// CompileIgnoreFile reads an ignore file, parses its lines, and adds them to the Matcher.
func (m *Matcher) CompileIgnoreFile(fpath string) error {
	content, err := os.ReadFile(fpath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.logger.Debug("Ignore file does not exist and will be skipped", zap.String("filePath", fpath))
		} else {
			m.logger.Error("Failed to read ignore file", zap.String("filePath", fpath), zap.Error(err))
		}
		return err
	}

	lines := strings.Split(string(content), "\n")
	m.CompileIgnoreLines(lines...)
	m.logger.Info("Compiled ignore patterns", zap.String("filePath", fpath), zap.Int("lineCount", len(lines)))
	return nil
}

// Excludes reports whether an entry is left out. name is the entry's base
// name; relPath is its path relative to the walked top-level entry and is
// only consulted by patterns.
func (m *Matcher) Excludes(name, relPath string, isDir bool) bool {
	if _, ok := m.names[name]; ok {
		return true
	}
	if len(m.patterns) == 0 {
		return false
	}
	if relPath == "" {
		relPath = name
	}
	relPath = filepath.ToSlash(relPath)
	if isDir && !strings.HasSuffix(relPath, "/") {
		relPath += "/"
	}
	matches, _ := m.MatchesPathWithPattern(relPath)
	return matches
}

// MatchesPathWithPattern checks if a path matches any ignore pattern and returns
// the matched pattern if applicable. The last matching pattern wins.
func (m *Matcher) MatchesPathWithPattern(path string) (bool, *IgnorePattern) {
	var matchedPattern *IgnorePattern
	matches := false

	for _, pattern := range m.patterns {
		if pattern.Pattern.MatchString(path) {
			matchedPattern = pattern
			matches = !pattern.Negate
		}
	}

	return matches, matchedPattern
}

// parsePatternLine processes a line from an ignore file into a compiled regex and a negation flag.
func parsePatternLine(line string) (*regexp.Regexp, bool) {
	trimmedLine := strings.TrimSpace(line)

	// Ignore empty lines and comments.
	if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
		return nil, false
	}

	negate := false
	if strings.HasPrefix(trimmedLine, "!") {
		negate = true
		trimmedLine = strings.TrimPrefix(trimmedLine, "!")
	}

	// Handle escaped characters for `#` and `!`.
	if strings.HasPrefix(trimmedLine, "\\#") || strings.HasPrefix(trimmedLine, "\\!") {
		trimmedLine = trimmedLine[1:]
	}

	expr := escapeSpecialChars(trimmedLine)
	expr = handleDoubleStarPatterns(expr)
	expr = wildcardToRegex(expr)
	expr = anchorPattern(expr, trimmedLine)

	compiledRegex, err := regexp.Compile(expr)
	if err != nil {
		return nil, false
	}

	return compiledRegex, negate
}

// escapeSpecialChars escapes regex special characters except for `*`, `?`, and `/`.
func escapeSpecialChars(pattern string) string {
	specialChars := `\.+()|^$[]{}`
	for _, char := range specialChars {
		pattern = strings.ReplaceAll(pattern, string(char), `\`+string(char))
	}
	return pattern
}

// Placeholders keep the regex produced for '**' away from the single
// wildcard conversion that runs after it.
const (
	anyPlaceholder       = "\x00"
	oneOrMorePlaceholder = "\x01"
	optionalPlaceholder  = "\x02"
)

var placeholderReplacer = strings.NewReplacer(
	anyPlaceholder, ".*",
	oneOrMorePlaceholder, ".+",
	optionalPlaceholder, "?",
)

// handleDoubleStarPatterns processes '**' patterns into regex equivalents.
func handleDoubleStarPatterns(pattern string) string {
	pattern = doubleStarMiddlePattern.ReplaceAllString(pattern, "(/|/"+oneOrMorePlaceholder+"/)")
	pattern = doubleStarTrailingPattern.ReplaceAllString(pattern, "(/"+anyPlaceholder+")"+optionalPlaceholder)
	pattern = doubleStarLeadingPattern.ReplaceAllString(pattern, "("+anyPlaceholder+"/)"+optionalPlaceholder)
	return pattern
}

// wildcardToRegex converts `*` and `?` wildcards to regex equivalents.
func wildcardToRegex(pattern string) string {
	pattern = singleStarPattern.ReplaceAllString(pattern, `[^/]*`)
	pattern = strings.ReplaceAll(pattern, "?", "[^/]")
	return placeholderReplacer.Replace(pattern)
}

// anchorPattern anchors the regex pattern to match the full path.
// A leading slash roots the pattern at the walked entry.
func anchorPattern(pattern string, originalPattern string) string {
	if strings.HasSuffix(originalPattern, "/") {
		pattern += "(|.*)$"
	} else {
		pattern += "(|/.*)$"
	}

	if strings.HasPrefix(originalPattern, "/") {
		return "^" + strings.TrimPrefix(pattern, "/")
	}
	return "^(|.*/)" + pattern
}
