// Package charset guesses the byte encoding of source files from a fixed-size
// prefix of their content.
package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Charset is a canonical charset name, e.g. "UTF-8" or "windows-1252".
type Charset string

const (
	UTF8        Charset = "UTF-8"
	UTF16       Charset = "UTF-16"
	UTF16BE     Charset = "UTF-16BE"
	UTF16LE     Charset = "UTF-16LE"
	UTF32BE     Charset = "UTF-32BE"
	UTF32LE     Charset = "UTF-32LE"
	Windows1252 Charset = "windows-1252"
)

// Lookup resolves a user supplied charset name (case-insensitive, IANA names
// and aliases accepted) to its canonical form.
func Lookup(name string) (Charset, error) {
	trimmed := strings.TrimSpace(name)
	switch strings.ToUpper(trimmed) {
	case "":
		return "", fmt.Errorf("empty charset name")
	case "UTF-8", "UTF8":
		return UTF8, nil
	case "UTF-16", "UTF16":
		return UTF16, nil
	case "UTF-16BE", "UTF16BE":
		return UTF16BE, nil
	case "UTF-16LE", "UTF16LE":
		return UTF16LE, nil
	case "UTF-32BE", "UTF32BE":
		return UTF32BE, nil
	case "UTF-32LE", "UTF32LE":
		return UTF32LE, nil
	}

	enc, err := ianaindex.IANA.Encoding(trimmed)
	if err != nil || enc == nil {
		return "", fmt.Errorf("unsupported charset %q", name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		return Charset(trimmed), nil
	}
	return Charset(canonical), nil
}

// MustLookup is like Lookup but panics on unknown names. Intended for constants in tests and defaults.
func MustLookup(name string) Charset {
	c, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the charset name.
func (c Charset) String() string { return string(c) }

// IsWide reports whether c is a fixed-width 16 or 32 bit Unicode encoding.
// Pure ASCII content can never be produced by such a charset without NUL bytes.
func (c Charset) IsWide() bool {
	upper := strings.ToUpper(string(c))
	return strings.HasPrefix(upper, "UTF-16") || strings.HasPrefix(upper, "UTF-32")
}

// Encoding returns the decoder/encoder pair backing the charset.
func (c Charset) Encoding() (encoding.Encoding, error) {
	switch c {
	case UTF8:
		return unicode.UTF8, nil
	case UTF16:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	}
	enc, err := ianaindex.IANA.Encoding(string(c))
	if err != nil {
		return nil, fmt.Errorf("resolving charset %s: %w", c, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %s is not supported", c)
	}
	return enc, nil
}
