package charset

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// Validity is the confidence of a charset check.
type Validity int

const (
	No Validity = iota
	Maybe
	Yes
)

func (v Validity) String() string {
	switch v {
	case Yes:
		return "YES"
	case Maybe:
		return "MAYBE"
	default:
		return "NO"
	}
}

// Result is the outcome of a single charset check.
type Result struct {
	Valid   Validity
	Charset Charset
}

var invalid = Result{Valid: No}

const (
	// Share of bytes that must be NUL in one orientation to accept UTF-16.
	utf16NullPassThreshold = 0.7
	// Share of NUL bytes in the opposite orientation that rejects it.
	utf16NullFailThreshold = 0.1
)

// IsUTF8 checks the structure of multi-byte sequences. A buffer made only of
// 7-bit bytes is compatible with too many charsets to be conclusive and yields
// Maybe. A sequence cut by the end of the buffer is tolerated.
func IsUTF8(buf []byte, rejectNulls bool) Result {
	onlyASCII := true
	for i := 0; i < len(buf); i++ {
		c := buf[i]
		if rejectNulls && c == 0 {
			return invalid
		}

		var trailing int
		switch {
		case c&0x80 == 0:
			trailing = 0
		case c&0xE0 == 0xC0:
			trailing = 1
		case c&0xF0 == 0xE0:
			trailing = 2
		case c&0xF8 == 0xF0:
			trailing = 3
		default:
			return invalid
		}
		if trailing > 0 {
			onlyASCII = false
		}

		for ; trailing > 0; trailing-- {
			i++
			if i >= len(buf) {
				break
			}
			if buf[i]&0xC0 != 0x80 {
				return invalid
			}
		}
	}

	if onlyASCII {
		return Result{Valid: Maybe, Charset: UTF8}
	}
	return Result{Valid: Yes, Charset: UTF8}
}

// IsUTF16 looks at the density of zero bytes and line feeds in each byte
// orientation. Text written in a Latin script encoded as UTF-16 has a zero in
// (nearly) every other byte.
func IsUTF16(buf []byte, failOnNull bool) Result {
	if len(buf) < 2 {
		return invalid
	}

	var beASCII, beLines, leASCII, leLines int
	for i := 0; i+1 < len(buf); i += 2 {
		hi, lo := buf[i], buf[i+1]
		switch {
		case hi == 0 && lo != 0:
			beASCII++
			if lo == '\n' || lo == '\r' {
				beLines++
			}
		case hi == 0 && lo == 0:
			if failOnNull {
				// two NULs in a row: UTF-32 or binary
				return invalid
			}
		case lo == 0:
			leASCII++
			if hi == '\n' || hi == '\r' {
				leLines++
			}
		}
	}

	beASCIIRatio := float64(beASCII*2) / float64(len(buf))
	leASCIIRatio := float64(leASCII*2) / float64(len(buf))

	if leLines == 0 {
		if beASCIIRatio >= utf16NullPassThreshold && leASCIIRatio < utf16NullFailThreshold {
			return Result{Valid: Yes, Charset: UTF16BE}
		}
		if beLines > 0 {
			return Result{Valid: Yes, Charset: UTF16BE}
		}
	} else if beLines > 0 {
		// line feeds in both orientations
		return invalid
	}

	if beLines == 0 {
		if leASCIIRatio >= utf16NullPassThreshold && beASCIIRatio < utf16NullFailThreshold {
			return Result{Valid: Yes, Charset: UTF16LE}
		}
		if leLines > 0 {
			return Result{Valid: Yes, Charset: UTF16LE}
		}
	}

	// No line feed and no strong NUL pattern, e.g. a single line of text in a
	// script outside Latin-1.
	return Result{Valid: Maybe}
}

// IsValidUTF16 walks the buffer as UTF-16 code units and checks surrogate
// pairing. Zero code units are rejected.
func IsValidUTF16(buf []byte, bigEndian bool) bool {
	if len(buf) < 2 {
		return false
	}
	units := len(buf) / 2
	for i := 0; i < units; i++ {
		c := readCodeUnit(buf, i, bigEndian)
		switch {
		case c == 0:
			return false
		case c >= 0xD800 && c < 0xDC00:
			i++
			if i >= units {
				// high surrogate cut by the end of the buffer
				return true
			}
			low := readCodeUnit(buf, i, bigEndian)
			if low < 0xDC00 || low > 0xDFFF {
				return false
			}
		case c >= 0xDC00 && c <= 0xDFFF:
			return false
		}
	}
	return true
}

func readCodeUnit(buf []byte, index int, bigEndian bool) uint16 {
	b0, b1 := uint16(buf[2*index]), uint16(buf[2*index+1])
	if bigEndian {
		return b0<<8 | b1
	}
	return b1<<8 | b0
}

var validWindows1252 = func() [256]bool {
	var table [256]bool
	for i := range table {
		table[i] = true
	}
	for _, undefined := range []byte{0x81, 0x8D, 0x8F, 0x90, 0x9D} {
		table[undefined] = false
	}
	return table
}()

// IsValidWindows1252 accepts any buffer free of the five code points
// Windows-1252 leaves undefined. Nearly everything passes, so a positive
// answer is only Maybe.
func IsValidWindows1252(buf []byte) Result {
	for _, b := range buf {
		if !validWindows1252[b] {
			return invalid
		}
	}
	return Result{Valid: Maybe, Charset: Windows1252}
}

// TryDecode decodes buf strictly with c. Malformed input and bytes without a
// mapping both fail. An incomplete sequence at the very end is tolerated.
func TryDecode(buf []byte, c Charset) bool {
	enc, err := c.Encoding()
	if err != nil {
		return false
	}
	dst := make([]byte, 4*len(buf)+utf8.UTFMax)
	nDst, _, err := enc.NewDecoder().Transform(dst, buf, false)
	if err != nil && err != transform.ErrShortSrc {
		return false
	}
	return !bytes.ContainsRune(dst[:nDst], utf8.RuneError)
}
