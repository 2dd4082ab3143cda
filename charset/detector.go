package charset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/transform"
)

// PrefixSize is the number of leading bytes inspected to guess a charset.
const PrefixSize = 4096

// Detection is the charset guessed for a buffer.
type Detection struct {
	Charset  Charset
	Validity Validity
	// BOMSize is the number of leading bytes taken by a byte order mark.
	BOMSize int
}

// Detect guesses the charset of a file from its first bytes. declared is the
// charset configured by the user and is preferred whenever the content is
// compatible with it. The second return value is false when nothing fits;
// callers then fall back to declared.
func Detect(prefix []byte, declared Charset) (Detection, bool) {
	if bom, size, ok := DetectBOM(prefix); ok {
		return Detection{Charset: bom, Validity: Yes, BOMSize: size}, true
	}

	utf8Result := IsUTF8(prefix, true)
	switch utf8Result.Valid {
	case Yes:
		return Detection{Charset: UTF8, Validity: Yes}, true
	case Maybe:
		if declared != "" && !declared.IsWide() {
			return Detection{Charset: declared, Validity: Maybe}, true
		}
		return Detection{Charset: UTF8, Validity: Maybe}, true
	}

	utf16Result := IsUTF16(prefix, true)
	if utf16Result.Valid == Yes && IsValidUTF16(prefix, utf16Result.Charset == UTF16BE) {
		return Detection{Charset: utf16Result.Charset, Validity: Yes}, true
	}

	// UTF-8 and UTF-16 are ruled out at this point, so is a wide declared charset.
	if declared != "" && declared != UTF8 && !declared.IsWide() && TryDecode(prefix, declared) {
		return Detection{Charset: declared, Validity: Maybe}, true
	}

	if result := IsValidWindows1252(prefix); result.Valid == Maybe {
		return Detection{Charset: result.Charset, Validity: Maybe}, true
	}
	return Detection{}, false
}

// Stream is a decoded view of a file's content.
type Stream struct {
	io.Reader
	Charset  Charset
	Detected bool
}

// NewReader sniffs the charset of r and returns a reader producing its content
// as UTF-8, with any byte order mark removed. When no charset fits, declared is
// used and Detected is false.
func NewReader(r io.Reader, declared Charset) (*Stream, error) {
	buffered := bufio.NewReaderSize(r, PrefixSize)
	prefix, err := buffered.Peek(PrefixSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading prefix: %w", err)
	}

	detection, ok := Detect(prefix, declared)
	cs := detection.Charset
	if !ok {
		cs = declared
	}
	if _, err := buffered.Discard(detection.BOMSize); err != nil {
		return nil, fmt.Errorf("skipping byte order mark: %w", err)
	}

	enc, err := cs.Encoding()
	if err != nil {
		return nil, err
	}
	return &Stream{
		Reader:   transform.NewReader(buffered, enc.NewDecoder()),
		Charset:  cs,
		Detected: ok,
	}, nil
}

// DetectFile reads the prefix of the file at path and runs Detect on it.
func DetectFile(path string, declared Charset) (Detection, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return Detection{}, false, err
	}
	defer f.Close()

	prefix := make([]byte, PrefixSize)
	n, err := io.ReadFull(f, prefix)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Detection{}, false, fmt.Errorf("reading %s: %w", path, err)
	}
	detection, ok := Detect(prefix[:n], declared)
	return detection, ok, nil
}
