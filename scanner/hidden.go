package scanner

import "sync"

// HiddenFiles remembers which kept files are hidden until the indexer asks.
type HiddenFiles struct {
	mu       sync.Mutex
	byModule map[string]map[string]struct{}
}

// NewHiddenFiles creates an empty record.
func NewHiddenFiles() *HiddenFiles {
	return &HiddenFiles{byModule: make(map[string]map[string]struct{})}
}

// Mark records path as hidden for a module.
func (h *HiddenFiles) Mark(moduleKey, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	files, ok := h.byModule[moduleKey]
	if !ok {
		files = make(map[string]struct{})
		h.byModule[moduleKey] = files
	}
	files[path] = struct{}{}
}

// Take reports whether path was marked hidden for a module and forgets it.
func (h *HiddenFiles) Take(moduleKey, path string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	files := h.byModule[moduleKey]
	if _, ok := files[path]; !ok {
		return false
	}
	delete(files, path)
	if len(files) == 0 {
		delete(h.byModule, moduleKey)
	}
	return true
}

// Len returns the number of hidden files not yet taken.
func (h *HiddenFiles) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, files := range h.byModule {
		n += len(files)
	}
	return n
}
