// Package token defines the token stream exchanged between Readers and
// Parsers.
//
// A Reader turns raw bytes into a Source; a Parser drains the Source into a
// document tree. Keeping the contract at the token level lets readers for very
// different formats (JSON, YAML, TOML, CUE) share one parser.
package token

import (
	"errors"
	"fmt"
	"io"
)

// Kind represents token kinds.
type Kind int

const (
	BeginObject Kind = iota
	EndObject
	BeginArray
	EndArray
	Key
	String
	Number
	Bool
	Null
)

func (k Kind) String() string {
	switch k {
	case BeginObject:
		return "begin_object"
	case EndObject:
		return "end_object"
	case BeginArray:
		return "begin_array"
	case EndArray:
		return "end_array"
	case Key:
		return "key"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Null:
		return "null"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsScalar reports whether the kind carries a leaf value.
func (k Kind) IsScalar() bool {
	return k == String || k == Number || k == Bool || k == Null
}

// Token describes a token in the input stream. Offset records the byte position
// when known (-1 otherwise); Line and Column are 1-based and 0 when unknown.
type Token struct {
	Kind   Kind
	String string // Stored for key/string tokens.
	Number string // Stored as literal text.
	Bool   bool
	Offset int64
	Line   int
	Column int
}

// Source abstracts over polymorphic token producers.
type Source interface {
	NextToken() (Token, error)
	Location() int64 // byte offset; -1 if unknown
}

// ErrUnexpectedToken reports a token that is not valid at its position.
var ErrUnexpectedToken = errors.New("token: unexpected token")

// UnexpectedError wraps ErrUnexpectedToken with the offending token.
func UnexpectedError(tok Token) error {
	return fmt.Errorf("%w %s at offset %d", ErrUnexpectedToken, tok.Kind, tok.Offset)
}

// sliceSource replays a fixed token slice.
type sliceSource struct {
	toks []Token
	i    int
}

// FromTokens returns a Source replaying toks in order.
func FromTokens(toks ...Token) Source {
	return &sliceSource{toks: toks}
}

func (s *sliceSource) NextToken() (Token, error) {
	if s.i >= len(s.toks) {
		return Token{}, io.EOF
	}
	t := s.toks[s.i]
	s.i++
	return t, nil
}

func (s *sliceSource) Location() int64 {
	if s.i == 0 || s.i > len(s.toks) {
		return -1
	}
	return s.toks[s.i-1].Offset
}

// Collect drains src into a slice. It is mostly useful in tests.
func Collect(src Source) ([]Token, error) {
	var out []Token
	for {
		t, err := src.NextToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, t)
	}
}
