package charset

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func Test_Detect_UTF8BOMIsConsumed(t *testing.T) {
	original := "Sample xoo\ncontent with é and ü\n"
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(original)...)

	stream, err := NewReader(bytes.NewReader(data), Windows1252)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stream.Charset != UTF8 {
		t.Errorf("expected UTF-8, got %s", stream.Charset)
	}
	decoded, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(decoded) != original {
		t.Errorf("expected %q, got %q", original, decoded)
	}
}

func Test_Detect_BOMs(t *testing.T) {
	tests := []struct {
		name    string
		prefix  []byte
		want    Charset
		bomSize int
	}{
		{"utf8", []byte{0xEF, 0xBB, 0xBF, 'a'}, UTF8, 3},
		{"utf16le", []byte{0xFF, 0xFE, 'a', 0}, UTF16LE, 2},
		{"utf16be", []byte{0xFE, 0xFF, 0, 'a'}, UTF16BE, 2},
		{"utf32le", []byte{0xFF, 0xFE, 0, 0, 'a', 0, 0, 0}, UTF32LE, 4},
		{"utf32be", []byte{0, 0, 0xFE, 0xFF, 0, 0, 0, 'a'}, UTF32BE, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Detect(tt.prefix, UTF8)
			if !ok {
				t.Fatal("expected a detection")
			}
			if got.Charset != tt.want || got.BOMSize != tt.bomSize {
				t.Errorf("Detect() = %s/%d, want %s/%d", got.Charset, got.BOMSize, tt.want, tt.bomSize)
			}
		})
	}
}

func Test_Detect_UTF16BEWithoutBOM(t *testing.T) {
	var data []byte
	for _, c := range []byte("first line\nsecond line\n") {
		data = append(data, 0, c)
	}

	got, ok := Detect(data, Windows1252)
	if !ok || got.Charset != UTF16BE {
		t.Errorf("expected UTF-16BE, got %s (ok=%v)", got.Charset, ok)
	}
}

func Test_Detect_UTF16LEWithoutBOM(t *testing.T) {
	data, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte("package foo\nimport bar\n"))
	if err != nil {
		t.Fatal(err)
	}

	got, ok := Detect(data, UTF8)
	if !ok || got.Charset != UTF16LE {
		t.Errorf("expected UTF-16LE, got %s (ok=%v)", got.Charset, ok)
	}
}

func Test_Detect_PureASCIIPrefersDeclared(t *testing.T) {
	var data []byte
	for c := byte(0x20); c <= 0x7E; c++ {
		data = append(data, c)
	}
	declared := MustLookup("ISO-8859-1")

	got, ok := Detect(data, declared)
	if !ok {
		t.Fatal("expected a detection")
	}
	if got.Validity != Maybe {
		t.Errorf("expected MAYBE, got %s", got.Validity)
	}
	if got.Charset != declared {
		t.Errorf("expected %s, got %s", declared, got.Charset)
	}
}

func Test_Detect_PureASCIIWithWideDeclaredFallsBackToUTF8(t *testing.T) {
	got, ok := Detect([]byte("just ascii"), UTF16BE)
	if !ok || got.Charset != UTF8 {
		t.Errorf("expected UTF-8, got %s", got.Charset)
	}
}

func Test_Detect_ValidUTF8(t *testing.T) {
	got, ok := Detect([]byte("naïve café"), Windows1252)
	if !ok || got.Charset != UTF8 || got.Validity != Yes {
		t.Errorf("expected UTF-8/YES, got %s/%s", got.Charset, got.Validity)
	}
}

func Test_Detect_DeclaredCharsetWhenUTF8RuledOut(t *testing.T) {
	latin1 := MustLookup("ISO-8859-1")
	data, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("café crème"))
	if err != nil {
		t.Fatal(err)
	}

	got, ok := Detect(data, latin1)
	if !ok || got.Charset != latin1 {
		t.Errorf("expected %s, got %s", latin1, got.Charset)
	}
}

func Test_Detect_DeclaredUTF8NotReusedWhenRuledOut(t *testing.T) {
	// UTF-32LE without BOM: NUL bytes rule out UTF-8 and UTF-16
	var data []byte
	for _, r := range "hello world\nsecond line\n" {
		data = append(data, byte(r), 0, 0, 0)
	}

	got, ok := Detect(data, UTF8)
	if ok && got.Charset == UTF8 {
		t.Fatalf("UTF-8 was ruled out, got %s/%s", got.Charset, got.Validity)
	}
	if !ok || got.Charset != Windows1252 || got.Validity != Maybe {
		t.Errorf("expected windows-1252/MAYBE, got %s/%s", got.Charset, got.Validity)
	}
}

func Test_Detect_Windows1252Fallback(t *testing.T) {
	data, err := charmap.Windows1252.NewEncoder().Bytes([]byte("price: 10€ “quoted”"))
	if err != nil {
		t.Fatal(err)
	}

	got, ok := Detect(data, UTF16LE)
	if !ok {
		t.Fatal("expected a detection")
	}
	if got.Charset != Windows1252 || got.Validity != Maybe {
		t.Errorf("expected windows-1252/MAYBE, got %s/%s", got.Charset, got.Validity)
	}
}

func Test_Detect_NothingFits(t *testing.T) {
	// 0x81 is undefined in windows-1252 and the sequence is not UTF-8
	data := []byte{'a', 0x81, 'b', 0x9D}

	if got, ok := Detect(data, UTF16BE); ok {
		t.Errorf("expected no detection, got %s", got.Charset)
	}
}

func Test_NewReader_FallsBackToDeclared(t *testing.T) {
	stream, err := NewReader(bytes.NewReader([]byte{'a', 0x81, 'b'}), UTF8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stream.Detected {
		t.Error("expected detection to fail")
	}
	if stream.Charset != UTF8 {
		t.Errorf("expected declared UTF-8, got %s", stream.Charset)
	}
}

func Test_DetectFile_ReadsPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.txt")
	if err := os.WriteFile(path, []byte("héllo"), 0644); err != nil {
		t.Fatal(err)
	}

	got, ok, err := DetectFile(path, Windows1252)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || got.Charset != UTF8 {
		t.Errorf("expected UTF-8, got %s", got.Charset)
	}
}
