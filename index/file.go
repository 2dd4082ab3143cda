package index

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/lexandro/sourcescan/charset"
)

// FileType tells source files from test files.
type FileType int

const (
	Main FileType = iota
	Test
)

// FileTypes lists every file type in evaluation order.
var FileTypes = []FileType{Main, Test}

func (t FileType) String() string {
	if t == Test {
		return "TEST"
	}
	return "MAIN"
}

// Status is the change status of a file compared to the previous analysis.
type Status int

const (
	Added Status = iota
	Changed
	Same
)

func (s Status) String() string {
	switch s {
	case Changed:
		return "CHANGED"
	case Same:
		return "SAME"
	default:
		return "ADDED"
	}
}

// IndexedFile is what is known about a file before its content is read.
type IndexedFile struct {
	ID                  int
	ProjectRelativePath string // forward slashes
	ModuleRelativePath  string // forward slashes
	AbsolutePath        string
	Type                FileType
	Language            string // empty when no language matched
	ModuleKey           string
}

// Filename returns the last path element.
func (f *IndexedFile) Filename() string {
	return path.Base(f.ProjectRelativePath)
}

// Extension returns the lower-cased extension without the dot, or "".
func (f *IndexedFile) Extension() string {
	name := f.Filename()
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

func (f *IndexedFile) String() string {
	return f.ProjectRelativePath
}

// Metadata is computed from the content of a file.
type Metadata struct {
	Charset          charset.Charset
	Hash             string
	Lines            int
	NonBlankLines    int
	LineStartOffsets []int // offsets, in characters of the decoded content, where each line starts
	LastValidOffset  int
}

// MetadataFunc computes the metadata and change status of a file.
type MetadataFunc func(f *InputFile) (Metadata, Status, error)

// InputFile is an IndexedFile published to the analysis, with lazily computed metadata.
type InputFile struct {
	IndexedFile

	ExcludedForCoverage    bool
	ExcludedForDuplication bool
	Published              bool
	Hidden                 bool

	once     sync.Once
	compute  MetadataFunc
	metadata Metadata
	status   Status
	err      error
}

// NewInputFile wraps an IndexedFile. compute runs at most once, on first access to the metadata.
func NewInputFile(indexed IndexedFile, compute MetadataFunc) *InputFile {
	return &InputFile{IndexedFile: indexed, compute: compute}
}

func (f *InputFile) ensureMetadata() {
	f.once.Do(func() {
		if f.compute == nil {
			f.err = fmt.Errorf("no metadata generator for %s", f.ProjectRelativePath)
			return
		}
		f.metadata, f.status, f.err = f.compute(f)
	})
}

// Metadata returns the metadata of the file, computing it on first call.
func (f *InputFile) Metadata() (Metadata, error) {
	f.ensureMetadata()
	return f.metadata, f.err
}

// Status returns the change status of the file, computing metadata on first call.
func (f *InputFile) Status() (Status, error) {
	f.ensureMetadata()
	return f.status, f.err
}

// Charset returns the charset of the file, or "" when metadata cannot be computed.
func (f *InputFile) Charset() charset.Charset {
	m, err := f.Metadata()
	if err != nil {
		return ""
	}
	return m.Charset
}
