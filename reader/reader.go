// Package reader provides the built-in Readers: JSON, YAML, TOML and CUE.
//
// Every reader first normalizes the raw bytes to UTF-8 (see Normalize), then
// validates the input eagerly so syntax errors fail the read stage, and finally
// exposes the document as a token stream for the Parser.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format names reported in specdoc.Content.Format.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatCUE  = "cue"
)

// ErrInvalidUTF8 is returned when input without a UTF-16 byte order mark is not
// valid UTF-8.
var ErrInvalidUTF8 = errors.New("reader: input is not valid UTF-8")

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Normalize returns data as UTF-8 without a byte order mark. UTF-16 input is
// accepted when it starts with a byte order mark; anything else must already
// be valid UTF-8.
func Normalize(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return nil, fmt.Errorf("reader: decode UTF-16: %w", err)
		}
		return out, nil
	}
	data = bytes.TrimPrefix(data, bomUTF8)
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	return data, nil
}

// lineIndex maps byte offsets to 1-based line and column numbers.
type lineIndex []int

func newLineIndex(text []byte) lineIndex {
	idx := lineIndex{0}
	for i, b := range text {
		if b == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (li lineIndex) position(offset int64) (line, col int) {
	if offset < 0 {
		return 0, 0
	}
	lo, hi := 0, len(li)
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if int64(li[mid]) <= offset {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo + 1, int(offset) - li[lo] + 1
}
