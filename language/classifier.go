// Package language assigns a language key to files from configured globs.
package language

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/lexandro/sourcescan/config"
	"github.com/lexandro/sourcescan/exclusion"
)

// AmbiguousLanguageError is returned when a file matches the patterns of two languages.
type AmbiguousLanguageError struct {
	Path          string
	First, Second string // "<property> : <patterns>"
}

func (e *AmbiguousLanguageError) Error() string {
	return fmt.Sprintf("Language of file '%s' can not be decided as the file matches patterns of both %s and %s",
		e.Path, e.First, e.Second)
}

type languagePatterns struct {
	key string
	// derived patterns come from suffixes and match extensions case-insensitively
	derived  bool
	details  string
	patterns []*exclusion.PathPattern
}

func (l *languagePatterns) match(absPath, relPath string) bool {
	if l.derived {
		absPath, relPath = lowerExtension(absPath), lowerExtension(relPath)
	}
	for _, p := range l.patterns {
		if p.Match(absPath, relPath) {
			return true
		}
	}
	return false
}

// Classifier maps files to language keys. It is built once per module and
// is immutable afterwards.
type Classifier struct {
	languages []*languagePatterns
}

// NewClassifier reads lang.patterns.<key> and <key>.file.suffixes from props,
// falling back to the built-in suffix table. Languages are tried in key order.
func NewClassifier(props config.Properties) (*Classifier, error) {
	keys := make(map[string]struct{})
	for _, b := range Builtins {
		keys[b.Key] = struct{}{}
	}
	for _, k := range props.WithPrefix(config.LanguagePatternsPrefix) {
		keys[strings.TrimPrefix(k, config.LanguagePatternsPrefix)] = struct{}{}
	}
	for k := range props {
		if key, ok := strings.CutSuffix(k, config.FileSuffixesSuffix); ok && key != "" {
			keys[key] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	c := &Classifier{}
	for _, key := range sorted {
		lp, err := patternsFor(key, props)
		if err != nil {
			return nil, err
		}
		if len(lp.patterns) > 0 {
			c.languages = append(c.languages, lp)
		}
	}
	return c, nil
}

func patternsFor(key string, props config.Properties) (*languagePatterns, error) {
	lp := &languagePatterns{key: key}

	explicitKey := config.LanguagePatternsPrefix + key
	if props.Has(explicitKey) {
		raw := props.StringArray(explicitKey)
		patterns, err := exclusion.ParsePatterns(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", explicitKey, err)
		}
		lp.patterns = patterns
		lp.details = explicitKey + " : " + strings.Join(raw, ",")
		return lp, nil
	}

	suffixKey := key + config.FileSuffixesSuffix
	var suffixes, extra []string
	if props.Has(suffixKey) {
		suffixes = props.StringArray(suffixKey)
	} else if b, ok := BuiltinByKey(key); ok {
		suffixes = b.Suffixes
		extra = b.Patterns
	}

	lp.derived = true
	var raw []string
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
		if s != "" {
			raw = append(raw, "**/*."+s)
		}
	}
	raw = append(raw, extra...)
	patterns, err := exclusion.ParsePatterns(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", suffixKey, err)
	}
	lp.patterns = patterns
	lp.details = suffixKey + " : " + strings.Join(raw, ",")
	return lp, nil
}

// Classify returns the language key of a file, "" when no language matches.
// relPath uses forward slashes.
func (c *Classifier) Classify(absPath, relPath string) (string, error) {
	var found *languagePatterns
	for _, lp := range c.languages {
		if !lp.match(absPath, relPath) {
			continue
		}
		if found != nil {
			return "", &AmbiguousLanguageError{Path: relPath, First: found.details, Second: lp.details}
		}
		found = lp
	}
	if found == nil {
		return "", nil
	}
	return found.key, nil
}

// Keys returns the language keys that have at least one pattern, in match order.
func (c *Classifier) Keys() []string {
	keys := make([]string, len(c.languages))
	for i, lp := range c.languages {
		keys[i] = lp.key
	}
	return keys
}

func lowerExtension(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return p
	}
	return p[:len(p)-len(ext)] + strings.ToLower(ext)
}
