package exclusion

// PatternSet is a plain list of exclusions, as used for coverage and
// duplication.
type PatternSet struct {
	property string
	patterns []*PathPattern
}

// Property returns the property the patterns were read from.
func (s *PatternSet) Property() string {
	return s.property
}

// Config returns the raw patterns.
func (s *PatternSet) Config() []string {
	return rawPatterns(s.patterns)
}

// IsExcluded reports whether the file matches any pattern.
func (s *PatternSet) IsExcluded(absPath, relPath string) bool {
	return matchAny(s.patterns, absPath, relPath)
}
