package specdoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	eng "github.com/reoring/specdoc/internal/engine"
	"github.com/reoring/specdoc/token"
)

// InputError reports malformed or rejected input found while consuming the
// token stream (syntax errors surface from the reader's stream as-is).
type InputError struct {
	Code    string
	Path    string
	Pos     Pos
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s at %s (%s): %s", e.Code, e.Path, e.Pos, e.Message)
}

// ErrEmptyDocument is returned when the token stream holds no value.
var ErrEmptyDocument = errors.New("empty document")

// TreeParser is the default Parser. It consumes a token stream, builds the
// element tree and applies the RuleSet to each element once the element (and
// all of its children) is complete.
type TreeParser struct {
	opt ParseOptions
}

// NewTreeParser returns a TreeParser with default options. Options carried by
// the context (ContextWithParseOptions) take precedence.
func NewTreeParser(opt ParseOptions) *TreeParser { return &TreeParser{opt: opt} }

// Parse implements Parser. On failure the partial tree built so far is
// returned together with the error.
func (p *TreeParser) Parse(ctx context.Context, c *Content, rs *RuleSet) (*Element, error) {
	if c == nil || c.Tokens == nil {
		return nil, errors.New("content carries no token stream")
	}
	opt := p.opt
	if o, ok := ParseOptionsFrom(ctx); ok {
		opt = o
	}
	var sink func(eng.SimpleIssue)
	if opt.OnWarning != nil {
		sink = func(si eng.SimpleIssue) {
			opt.OnWarning(Warning{Code: si.Code, Path: si.Path, Message: si.Message, Pos: Pos{Offset: si.Offset, Line: si.Line, Column: si.Column}})
		}
	}
	src := eng.WrapWithEnforcement(c.Tokens, eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink:   sink,
	})

	st := &parseState{ctx: ctx, rs: rs, opt: opt, src: src}
	tok, err := st.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, err
	}
	root, err := st.value(tok, "/", "")
	if err != nil {
		return root, err
	}
	if extra, err := st.next(); err == nil {
		return root, fmt.Errorf("trailing %s after document at %s", extra.Kind, posOf(extra))
	} else if !errors.Is(err, io.EOF) {
		return root, err
	}
	if root == nil {
		return nil, rootRemoved(rs, &Element{Pos: posOf(tok)}, DirectionParse)
	}
	if len(st.violations) > 0 {
		return root, st.violations
	}
	return root, nil
}

// ElementFromValue converts generic Go values into an element tree without
// applying any rules.
func ElementFromValue(v any) (*Element, error) {
	src, err := token.FromValue(v)
	if err != nil {
		return nil, err
	}
	return NewTreeParser(ParseOptions{}).Parse(context.Background(), &Content{Tokens: src}, nil)
}

type parseState struct {
	ctx        context.Context
	rs         *RuleSet
	opt        ParseOptions
	src        token.Source
	violations Violations
}

func (st *parseState) next() (token.Token, error) {
	tok, err := st.src.NextToken()
	if err != nil {
		var ie eng.IssueError
		if errors.As(err, &ie) {
			return token.Token{}, &InputError{
				Code:    ie.Code,
				Path:    ie.Path,
				Pos:     Pos{Offset: ie.Offset, Line: ie.Line, Column: ie.Column},
				Message: ie.Message,
			}
		}
		return token.Token{}, err
	}
	return tok, nil
}

// member reads the next token inside a container; io.EOF there is truncation.
func (st *parseState) member() (token.Token, error) {
	tok, err := st.next()
	if errors.Is(err, io.EOF) {
		return tok, io.ErrUnexpectedEOF
	}
	return tok, err
}

func (st *parseState) value(tok token.Token, path, key string) (*Element, error) {
	el := &Element{Key: key, Path: path, Pos: posOf(tok)}
	switch tok.Kind {
	case token.String:
		el.Kind, el.Value = KindString, tok.String
	case token.Number:
		el.Kind, el.Value = KindNumber, tok.Number
	case token.Bool:
		el.Kind, el.Value = KindBool, tok.Bool
	case token.Null:
		el.Kind = KindNull
	case token.BeginObject:
		el.Kind = KindObject
		if err := st.object(el); err != nil {
			return el, err
		}
	case token.BeginArray:
		el.Kind = KindArray
		if err := st.array(el); err != nil {
			return el, err
		}
	default:
		return nil, token.UnexpectedError(tok)
	}
	return st.apply(el)
}

func (st *parseState) object(el *Element) error {
	if err := st.ctx.Err(); err != nil {
		return err
	}
	for {
		tok, err := st.member()
		if err != nil {
			return err
		}
		if tok.Kind == token.EndObject {
			return nil
		}
		if tok.Kind != token.Key {
			return token.UnexpectedError(tok)
		}
		vt, err := st.member()
		if err != nil {
			return err
		}
		child, err := st.value(vt, childPath(el.Path, tok.String), tok.String)
		if child != nil {
			el.Children = append(el.Children, child)
		}
		if err != nil {
			return err
		}
	}
}

func (st *parseState) array(el *Element) error {
	if err := st.ctx.Err(); err != nil {
		return err
	}
	for {
		tok, err := st.member()
		if err != nil {
			return err
		}
		if tok.Kind == token.EndArray {
			return nil
		}
		// Index by kept children so removed items do not leave gaps.
		child, err := st.value(tok, childPath(el.Path, strconv.Itoa(len(el.Children))), "")
		if child != nil {
			el.Children = append(el.Children, child)
		}
		if err != nil {
			return err
		}
	}
}

func (st *parseState) apply(el *Element) (*Element, error) {
	if st.rs == nil {
		return el, nil
	}
	out, err := st.rs.Apply(st.rs.Context(st.ctx, DirectionParse, el), el)
	if err != nil {
		var v *RuleViolation
		if st.opt.Collect && errors.As(err, &v) {
			st.violations = append(st.violations, v)
			return out, nil
		}
		return out, err
	}
	return out, nil
}

func posOf(t token.Token) Pos {
	return Pos{Offset: t.Offset, Line: t.Line, Column: t.Column}
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case SeverityWarn:
		return eng.DupWarn
	case SeverityError:
		return eng.DupError
	default:
		return eng.DupIgnore
	}
}
