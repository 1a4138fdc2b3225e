package anonymize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Keyword is one replacement rule.
type Keyword struct {
	Word        string
	Replacement string
}

// Keywords holds the replacement rules in the order they appear in the
// keyword file. Rules apply in that order, so a replacement containing a
// later keyword is rewritten again.
type Keywords struct {
	rules []rule
}

type rule struct {
	Keyword
	re *regexp.Regexp
}

// NewKeywords compiles whole word, case sensitive rules.
func NewKeywords(words []Keyword) *Keywords {
	k := &Keywords{rules: make([]rule, 0, len(words))}
	for _, w := range words {
		if w.Word == "" {
			continue
		}
		k.rules = append(k.rules, rule{
			Keyword: w,
			re:      regexp.MustCompile(`\b` + regexp.QuoteMeta(w.Word) + `\b`),
		})
	}
	return k
}

// Len returns the number of rules.
func (k *Keywords) Len() int {
	if k == nil {
		return 0
	}
	return len(k.rules)
}

// Apply replaces every whole word occurrence of each keyword.
func (k *Keywords) Apply(text string) string {
	if k == nil {
		return text
	}
	for _, r := range k.rules {
		text = r.re.ReplaceAllLiteralString(text, r.Replacement)
	}
	return text
}

// ParseKeywords decodes a keyword document. format is "json" or "yaml".
// The document must be an object mapping keywords to replacements. Scalar
// replacements are used as their text form; keys whose value is an object
// or a list are returned in skipped. A repeated key keeps its first position
// and takes its last value.
func ParseKeywords(data []byte, format string) (words []Keyword, skipped []string, err error) {
	switch format {
	case "json":
		return parseJSON(data)
	case "yaml":
		return parseYAML(data)
	default:
		return nil, nil, fmt.Errorf("unsupported keyword format %q", format)
	}
}

// ReadKeywordsFile reads and parses path, choosing the format from its extension.
func ReadKeywordsFile(path string) ([]Keyword, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return ParseKeywords(data, formatOf(path))
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// keywordSet collects keywords in first-seen order.
type keywordSet struct {
	words   []Keyword
	index   map[string]int
	skipped []string
}

func (s *keywordSet) set(word, replacement string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[word]; ok {
		s.words[i].Replacement = replacement
		return
	}
	s.index[word] = len(s.words)
	s.words = append(s.words, Keyword{Word: word, Replacement: replacement})
}

func (s *keywordSet) skip(word string) {
	s.skipped = append(s.skipped, word)
}

func parseJSON(data []byte) ([]Keyword, []string, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, errors.New("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, nil, errors.New("keywords must be a JSON object")
	}

	var set keywordSet
	doc.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.String, gjson.Number, gjson.True, gjson.False:
			set.set(key.String(), value.String())
		case gjson.Null:
			set.set(key.String(), "null")
		default:
			set.skip(key.String())
		}
		return true
	})
	return set.words, set.skipped, nil
}

func parseYAML(data []byte) ([]Keyword, []string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil, nil
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, nil, errors.New("keywords must be a YAML mapping")
	}

	var set keywordSet
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			set.skip(key.Value)
			continue
		}
		set.set(key.Value, value.Value)
	}
	return set.words, set.skipped, nil
}
