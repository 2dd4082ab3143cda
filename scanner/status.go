package scanner

import (
	"github.com/lexandro/sourcescan/index"
)

// ChangeOracle reports whether the SCM sees a file as changed. An error
// means the SCM knows nothing about the file.
type ChangeOracle interface {
	Changed(absolutePath string) (bool, error)
}

// Baseline gives the hash a file had in the previous analysis.
type Baseline interface {
	PreviousHash(moduleKey, moduleRelativePath string) (hash string, found bool)
}

// Snapshots is a Baseline loaded in memory, keyed by module key then path.
type Snapshots map[string]map[string]string

// PreviousHash implements Baseline.
func (s Snapshots) PreviousHash(moduleKey, path string) (string, bool) {
	hash, ok := s[moduleKey][path]
	return hash, ok
}

// statusDetector decides ADDED, CHANGED or SAME for a file.
type statusDetector struct {
	scm      ChangeOracle
	baseline Baseline
}

func (d *statusDetector) status(f *index.InputFile, hash string) index.Status {
	if d.scm != nil {
		if changed, err := d.scm.Changed(f.AbsolutePath); err == nil {
			if changed {
				return index.Changed
			}
			return index.Same
		}
	}
	if d.baseline == nil {
		return index.Added
	}
	previous, found := d.baseline.PreviousHash(f.ModuleKey, f.ModuleRelativePath)
	switch {
	case !found:
		return index.Added
	case previous == hash:
		return index.Same
	case previous == "":
		return index.Added
	default:
		return index.Changed
	}
}
