package reader

import (
	"context"
	"encoding/base64"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/token"
)

// CUE returns a Reader for CUE documents. The document must evaluate to a
// concrete value; regular fields are emitted in declaration order, hidden
// fields and definitions are skipped, and bytes become base64 strings.
func CUE() specdoc.Reader { return cueReader{} }

type cueReader struct{}

func (cueReader) Read(ctx context.Context, data []byte) (*specdoc.Content, error) {
	text, err := Normalize(data)
	if err != nil {
		return nil, err
	}
	cctx := cuecontext.New()
	v := cctx.CompileBytes(text, cue.Filename("input.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("cue compile: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("cue validation: %w", err)
	}
	w := &cueWalker{}
	if err := w.walk(v); err != nil {
		return nil, err
	}
	return &specdoc.Content{Format: FormatCUE, Text: text, Tokens: token.FromTokens(w.out...)}, nil
}

type cueWalker struct {
	out []token.Token
}

func (w *cueWalker) emit(v cue.Value, t token.Token) {
	t.Offset = -1
	if p := v.Pos(); p.IsValid() {
		t.Offset = int64(p.Offset())
		t.Line, t.Column = p.Line(), p.Column()
	}
	w.out = append(w.out, t)
}

func (w *cueWalker) walk(v cue.Value) error {
	switch k := v.Kind(); k {
	case cue.StructKind:
		it, err := v.Fields()
		if err != nil {
			return err
		}
		w.emit(v, token.Token{Kind: token.BeginObject})
		for it.Next() {
			sel := it.Selector()
			if !sel.IsString() {
				continue
			}
			w.emit(it.Value(), token.Token{Kind: token.Key, String: sel.Unquoted()})
			if err := w.walk(it.Value()); err != nil {
				return err
			}
		}
		w.emit(v, token.Token{Kind: token.EndObject})
	case cue.ListKind:
		it, err := v.List()
		if err != nil {
			return err
		}
		w.emit(v, token.Token{Kind: token.BeginArray})
		for it.Next() {
			if err := w.walk(it.Value()); err != nil {
				return err
			}
		}
		w.emit(v, token.Token{Kind: token.EndArray})
	case cue.NullKind:
		w.emit(v, token.Token{Kind: token.Null})
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return err
		}
		w.emit(v, token.Token{Kind: token.Bool, Bool: b})
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		raw, err := v.MarshalJSON()
		if err != nil {
			return err
		}
		w.emit(v, token.Token{Kind: token.Number, Number: string(raw)})
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return err
		}
		w.emit(v, token.Token{Kind: token.String, String: s})
	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return err
		}
		w.emit(v, token.Token{Kind: token.String, String: base64.StdEncoding.EncodeToString(b)})
	default:
		return fmt.Errorf("cue: unsupported value kind %s at %s", k, v.Pos())
	}
	return nil
}
