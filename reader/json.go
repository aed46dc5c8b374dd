package reader

import (
	"bytes"
	"context"
	"errors"
	"io"

	j "github.com/goccy/go-json"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/token"
)

// JSON returns a Reader for JSON documents backed by goccy/go-json.
func JSON() specdoc.Reader { return jsonReader{} }

type jsonReader struct{}

func (jsonReader) Read(ctx context.Context, data []byte) (*specdoc.Content, error) {
	text, err := Normalize(data)
	if err != nil {
		return nil, err
	}
	if !j.Valid(text) {
		return nil, errors.New("reader: invalid JSON document")
	}
	return &specdoc.Content{Format: FormatJSON, Text: text, Tokens: NewJSONSource(text)}, nil
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

type jsonSource struct {
	text  []byte
	lines lineIndex
	dec   *j.Decoder
	stack []frame
	last  int64
}

// NewJSONSource wraps JSON text into a token.Source with byte offsets and
// line/column positions.
func NewJSONSource(text []byte) token.Source {
	dec := j.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	return &jsonSource{text: text, lines: newLineIndex(text), dec: dec}
}

func (s *jsonSource) NextToken() (token.Token, error) {
	start := s.skipSeparators(s.dec.InputOffset())
	tok, err := s.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return token.Token{}, io.EOF
		}
		return token.Token{}, err
	}
	s.last = s.dec.InputOffset()
	line, col := s.lines.position(start)
	out := token.Token{Offset: start, Line: line, Column: col}

	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			out.Kind = token.BeginObject
		case '}':
			s.pop()
			out.Kind = token.EndObject
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			out.Kind = token.BeginArray
		case ']':
			s.pop()
			out.Kind = token.EndArray
		}
		return out, nil
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				top.expectingKey = false
				out.Kind, out.String = token.Key, v
				return out, nil
			}
		}
		out.Kind, out.String = token.String, v
	case bool:
		out.Kind, out.Bool = token.Bool, v
	case j.Number:
		out.Kind, out.Number = token.Number, string(v)
	case nil:
		out.Kind = token.Null
	default:
		return token.Token{}, errors.New("reader: unexpected JSON token")
	}
	s.valueDone()
	return out, nil
}

func (s *jsonSource) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}

func (s *jsonSource) valueDone() {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
}

// skipSeparators advances past whitespace and JSON punctuation that the
// decoder consumes implicitly, so offsets point at the token itself.
func (s *jsonSource) skipSeparators(off int64) int64 {
	for off < int64(len(s.text)) {
		switch s.text[off] {
		case ' ', '\t', '\r', '\n', ',', ':':
			off++
		default:
			return off
		}
	}
	return off
}

func (s *jsonSource) Location() int64 { return s.last }
