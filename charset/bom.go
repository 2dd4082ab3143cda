package charset

import "bytes"

type byteOrderMark struct {
	charset Charset
	bytes   []byte
}

// Ordered longest first: the UTF-32LE mark starts with the UTF-16LE one.
var byteOrderMarks = []byteOrderMark{
	{charset: UTF32LE, bytes: []byte{0xFF, 0xFE, 0x00, 0x00}},
	{charset: UTF32BE, bytes: []byte{0x00, 0x00, 0xFE, 0xFF}},
	{charset: UTF8, bytes: []byte{0xEF, 0xBB, 0xBF}},
	{charset: UTF16LE, bytes: []byte{0xFF, 0xFE}},
	{charset: UTF16BE, bytes: []byte{0xFE, 0xFF}},
}

// DetectBOM returns the charset announced by a leading byte order mark and
// the length of the mark.
func DetectBOM(buf []byte) (Charset, int, bool) {
	for _, bom := range byteOrderMarks {
		if bytes.HasPrefix(buf, bom.bytes) {
			return bom.charset, len(bom.bytes), true
		}
	}
	return "", 0, false
}
