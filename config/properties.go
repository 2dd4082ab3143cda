package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Property keys understood by the scanner.
const (
	PropSources               = "sources"
	PropTests                 = "tests"
	PropEncoding              = "encoding"
	PropInclusions            = "inclusions"
	PropExclusions            = "exclusions"
	PropTestInclusions        = "test.inclusions"
	PropTestExclusions        = "test.exclusions"
	PropCoverageExclusions    = "coverage.exclusions"
	PropDuplicationExclusions = "cpd.exclusions"
	PropFileSizeLimit         = "filesize.limit"
	PropPreloadMetadata       = "preloadFileMetadata"
	PropSCMExclusionsDisabled = "scm.exclusions.disabled"
	PropSCMReference          = "scm.reference"
	PropExcludeHidden         = "exclude.hidden"
	PropWorkDir               = "working.directory"
	PropBranch                = "branch.name"
	PropStrategy              = "filesystem.strategy"

	// LanguagePatternsPrefix is followed by a language key, e.g. "lang.patterns.go".
	LanguagePatternsPrefix = "lang.patterns."
	// FileSuffixesSuffix follows a language key, e.g. "go.file.suffixes".
	FileSuffixesSuffix = ".file.suffixes"
)

// Alias pairs a legacy property with a newer alternate spelling. The legacy
// key stays authoritative.
type Alias struct {
	Legacy string
	Alias  string
}

// Aliases lists every pattern property that can be set under two names.
var Aliases = []Alias{
	{Legacy: PropInclusions, Alias: "sources.inclusions"},
	{Legacy: PropExclusions, Alias: "sources.exclusions"},
	{Legacy: PropTestInclusions, Alias: "tests.inclusions"},
	{Legacy: PropTestExclusions, Alias: "tests.exclusions"},
	{Legacy: PropDuplicationExclusions, Alias: "duplication.exclusions"},
}

// AliasOf returns the alias registered for a legacy key.
func AliasOf(legacy string) (string, bool) {
	for _, a := range Aliases {
		if a.Legacy == legacy {
			return a.Alias, true
		}
	}
	return "", false
}

// Properties is a flat set of raw string properties.
type Properties map[string]string

// Get returns the trimmed value of key.
func (p Properties) Get(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Has reports whether key is set, even to an empty value.
func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// StringArray splits a comma separated value. Items can be double-quoted to
// contain commas; a doubled quote inside quotes is a literal quote. Empty
// items are dropped.
func (p Properties) StringArray(key string) []string {
	v, ok := p.Get(key)
	if !ok || v == "" {
		return nil
	}
	return SplitValues(v)
}

// Bool parses key as a boolean, returning def when unset or invalid.
func (p Properties) Bool(key string, def bool) bool {
	v, ok := p.Get(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Int64 parses key as an integer.
func (p Properties) Int64(key string, def int64) (int64, error) {
	v, ok := p.Get(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("property %s: %q is not an integer", key, v)
	}
	return n, nil
}

// WithPrefix returns the keys starting with prefix, sorted.
func (p Properties) WithPrefix(prefix string) []string {
	var keys []string
	for k := range p {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Merge returns a copy of p overlaid with child.
func (p Properties) Merge(child Properties) Properties {
	merged := make(Properties, len(p)+len(child))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range child {
		merged[k] = v
	}
	return merged
}

// Without returns a copy of p without the given keys.
func (p Properties) Without(keys ...string) Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// ReconcileAlias resolves a legacy/alias property pair. When only one is set
// it is used; when both are set the legacy one wins. warning is non-empty
// whenever the user should adjust the configuration.
func (p Properties) ReconcileAlias(legacy, alias string) (values []string, warning string) {
	hasLegacy, hasAlias := p.Has(legacy), p.Has(alias)
	switch {
	case hasLegacy && hasAlias:
		return p.StringArray(legacy), fmt.Sprintf(
			"Both properties '%s' and '%s' are set. Only the first will be used. Please remove '%s'.", legacy, alias, alias)
	case hasAlias:
		return p.StringArray(alias), fmt.Sprintf(
			"Property '%s' is an alias of '%s'. Please use '%s' instead.", alias, legacy, legacy)
	default:
		return p.StringArray(legacy), ""
	}
}

// SplitValues splits a comma separated list honoring double quotes.
func SplitValues(value string) []string {
	var (
		values  []string
		current strings.Builder
		quoted  bool
	)
	flush := func() {
		item := strings.TrimSpace(current.String())
		if item != "" {
			values = append(values, item)
		}
		current.Reset()
	}

	runes := []rune(value)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' && quoted && i+1 < len(runes) && runes[i+1] == '"':
			current.WriteRune('"')
			i++
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return values
}

// JoinValues is the inverse of SplitValues.
func JoinValues(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		if strings.ContainsAny(v, ",\"") {
			v = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
		}
		quoted[i] = v
	}
	return strings.Join(quoted, ",")
}
