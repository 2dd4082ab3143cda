package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/lexandro/sourcescan/charset"
	"github.com/lexandro/sourcescan/index"
)

// metadataGenerator reads a file once to compute its charset, hash and line data.
type metadataGenerator struct {
	logger *slog.Logger
	status *statusDetector
}

// generate returns the MetadataFunc of a file whose module declares the given encoding.
func (g *metadataGenerator) generate(declared charset.Charset) index.MetadataFunc {
	return func(f *index.InputFile) (index.Metadata, index.Status, error) {
		metadata, err := g.read(f.AbsolutePath, declared)
		if err != nil {
			return index.Metadata{}, index.Added, fmt.Errorf("failed to compute metadata of %s: %w", f.ProjectRelativePath, err)
		}
		g.logger.Debug(fmt.Sprintf("'%s' generated metadata with charset '%s'", f.ProjectRelativePath, metadata.Charset))
		return metadata, g.status.status(f, metadata.Hash), nil
	}
}

func (g *metadataGenerator) read(path string, declared charset.Charset) (index.Metadata, error) {
	file, err := openWithRetry(path)
	if err != nil {
		return index.Metadata{}, err
	}
	defer file.Close()

	stream, err := charset.NewReader(file, declared)
	if err != nil {
		return index.Metadata{}, err
	}
	if !stream.Detected {
		g.logger.Debug(fmt.Sprintf("Unable to detect charset of '%s', using '%s'", path, declared))
	}

	metadata, err := computeLines(bufio.NewReader(stream))
	if err != nil {
		return index.Metadata{}, err
	}
	metadata.Charset = stream.Charset
	return metadata, nil
}

// computeLines scans decoded content. Offsets count characters of the
// original text, so "\r\n" counts for two; the hash is computed over the
// content with line endings normalized to "\n".
func computeLines(r io.RuneReader) (index.Metadata, error) {
	digest := xxhash.New()
	var buf [utf8.UTFMax]byte

	offsets := []int{0}
	offset := 0
	nonBlank := 0
	lineHasContent := false
	afterCR := false

	endLine := func() {
		if lineHasContent {
			nonBlank++
		}
		lineHasContent = false
	}

	for {
		ch, _, err := r.ReadRune()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return index.Metadata{}, err
		}

		switch {
		case ch == '\n' && afterCR:
			// second half of "\r\n": the line already ended
			offset++
			offsets[len(offsets)-1] = offset
		case ch == '\n' || ch == '\r':
			endLine()
			offset++
			offsets = append(offsets, offset)
			_, _ = digest.Write([]byte{'\n'})
		default:
			if !unicode.IsSpace(ch) {
				lineHasContent = true
			}
			offset++
			n := utf8.EncodeRune(buf[:], ch)
			_, _ = digest.Write(buf[:n])
		}
		afterCR = ch == '\r'
	}
	endLine()

	return index.Metadata{
		Hash:             fmt.Sprintf("%016x", digest.Sum64()),
		Lines:            len(offsets),
		NonBlankLines:    nonBlank,
		LineStartOffsets: offsets,
		LastValidOffset:  offset,
	}, nil
}

// openWithRetry opens a file, retrying once after a short delay when it is
// locked (common on Windows when editors are saving).
func openWithRetry(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		time.Sleep(50 * time.Millisecond)
		return os.Open(path)
	}
	return f, nil
}
