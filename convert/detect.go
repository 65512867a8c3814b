package convert

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"golang.org/x/net/html/charset"
)

// headerSize is enough for filetype matchers.
const headerSize = 262

var markupExtensions = []string{".html", ".htm", ".xhtml", ".shtml", ".tmpl", ".tpl"}

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

func readHeader(r io.Reader) ([]byte, error) {
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// isArchiveFile checks file content, extension does not matter.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head, err := readHeader(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

func isMarkupName(name string) bool {
	return slices.Contains(markupExtensions, strings.ToLower(filepath.Ext(name)))
}

// looksBinary reports content recognized as known binary format or having NUL
// bytes without UTF-16 byte order mark.
func looksBinary(head []byte) bool {
	if bytes.HasPrefix(head, bomUTF16BE) || bytes.HasPrefix(head, bomUTF16LE) {
		return false
	}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return true
	}
	return bytes.IndexByte(head, 0) >= 0
}

func isMarkupFile(path string) (bool, error) {
	if !isMarkupName(path) {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head, err := readHeader(f)
	if err != nil {
		return false, err
	}
	return !looksBinary(head), nil
}

func isMarkupInArchive(name string, f *zip.File) (bool, error) {
	if !isMarkupName(name) {
		return false, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, err
	}
	defer r.Close()

	head, err := readHeader(r)
	if err != nil {
		return false, err
	}
	return !looksBinary(head), nil
}

// decodeMarkup converts raw bytes to text using byte order mark or meta
// charset declaration. Undeclared input which is valid UTF-8 is taken as is.
// Returns canonical name of the detected encoding.
func decodeMarkup(data []byte) (string, string, error) {
	enc, name, certain := charset.DetermineEncoding(data, "text/html")
	if !certain && name == "windows-1252" && utf8.Valid(data) {
		// detection only looks at the beginning of the document
		name = "utf-8"
	}
	if name == "utf-8" {
		return strings.TrimPrefix(string(data), "\uFEFF"), name, nil
	}
	text, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", name, fmt.Errorf("unable to decode input as %s: %w", name, err)
	}
	return strings.TrimPrefix(string(text), "\uFEFF"), name, nil
}
