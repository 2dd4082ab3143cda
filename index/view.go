package index

import "fmt"

// Strategy selects which files the later analysis stages see.
type Strategy int

const (
	// GlobalStrategy exposes every file of the project.
	GlobalStrategy Strategy = iota
	// ModuleStrategy exposes only the files of the module being processed.
	ModuleStrategy
)

// ParseStrategy reads "global" or "module". The empty string means global.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "global":
		return GlobalStrategy, nil
	case "module":
		return ModuleStrategy, nil
	}
	return GlobalStrategy, fmt.Errorf("unknown file system strategy %q (must be \"global\" or \"module\")", s)
}

func (s Strategy) String() string {
	if s == ModuleStrategy {
		return "module"
	}
	return "global"
}

// FileSystem is a read-only view over the catalog.
type FileSystem interface {
	// Files returns the visible files.
	Files() []*InputFile
	// File resolves a path relative to the view root.
	File(relativePath string) *InputFile
	// Languages returns the sorted language keys of the visible files.
	Languages() []string
	// FilesWithLanguage returns the visible files of a language.
	FilesWithLanguage(language string) []*InputFile
}

// View returns a FileSystem over the store. moduleKey is the module currently
// processed; it only matters for ModuleStrategy.
func (s *Store) View(strategy Strategy, moduleKey string) FileSystem {
	if strategy == ModuleStrategy {
		return &moduleView{store: s, moduleKey: moduleKey}
	}
	return &globalView{store: s}
}

type globalView struct {
	store *Store
}

func (v *globalView) Files() []*InputFile {
	return v.store.AllFiles()
}

func (v *globalView) File(relativePath string) *InputFile {
	return v.store.File(relativePath)
}

func (v *globalView) Languages() []string {
	return v.store.Languages()
}

func (v *globalView) FilesWithLanguage(language string) []*InputFile {
	return filterLanguage(v.store.AllFiles(), language)
}

type moduleView struct {
	store     *Store
	moduleKey string
}

func (v *moduleView) Files() []*InputFile {
	return v.store.ModuleFiles(v.moduleKey)
}

func (v *moduleView) File(relativePath string) *InputFile {
	return v.store.ModuleFile(v.moduleKey, relativePath)
}

func (v *moduleView) Languages() []string {
	return v.store.ModuleLanguages(v.moduleKey)
}

func (v *moduleView) FilesWithLanguage(language string) []*InputFile {
	return filterLanguage(v.store.ModuleFiles(v.moduleKey), language)
}

func filterLanguage(files []*InputFile, language string) []*InputFile {
	var out []*InputFile
	for _, f := range files {
		if f.Language == language {
			out = append(out, f)
		}
	}
	return out
}
