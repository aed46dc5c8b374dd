package engine

import (
	"strconv"
	"strings"

	"github.com/reoring/specdoc/token"
)

// Enforcement wrapper for token.Source to apply duplicate key handling,
// max depth checks, and max bytes truncation in a streaming fashion.

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// Issue codes produced by the enforcement layer.
const (
	CodeDuplicateKey  = "duplicate_key"
	CodeDepthExceeded = "max_depth_exceeded"
	CodeTruncated     = "truncated"
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
	Offset  int64
	Line    int
	Column  int
}

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink receives non-fatal issues (duplicate keys under DupWarn).
	IssueSink func(SimpleIssue)
}

// Enabled reports whether any enforcement would take place.
func (o EnforceOptions) Enabled() bool {
	return o.OnDuplicate != DupIgnore || o.MaxDepth > 0 || o.MaxBytes > 0
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	keys         map[string]struct{}
	expectingKey bool
	path         string
	nextIndex    int
	pendingKey   string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.Path + ": " + e.Message }

// WrapWithEnforcement returns a Source that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes. When no option is set the
// inner source is returned unchanged.
func WrapWithEnforcement(inner token.Source, opt EnforceOptions) token.Source {
	if !opt.Enabled() {
		return inner
	}
	return &enforcingSource{inner: inner, opt: opt}
}

type enforcingSource struct {
	inner token.Source
	opt   EnforceOptions
	stack []frame
}

func (e *enforcingSource) NextToken() (token.Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return token.Token{}, err
	}

	path := e.pathForToken(tok)
	issue := func(code, msg string) SimpleIssue {
		return SimpleIssue{Code: code, Path: normalizePath(path), Message: msg, Offset: tok.Offset, Line: tok.Line, Column: tok.Column}
	}

	switch tok.Kind {
	case token.BeginObject, token.BeginArray:
		f := frame{kind: kindArray, path: path}
		if tok.Kind == token.BeginObject {
			f = frame{kind: kindObject, keys: make(map[string]struct{}), expectingKey: true, path: path}
		}
		e.stack = append(e.stack, f)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return token.Token{}, IssueError{issue(CodeDepthExceeded, "max depth "+strconv.Itoa(e.opt.MaxDepth)+" exceeded")}
		}
	case token.EndObject, token.EndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		e.valueDone()
	case token.Key:
		if n := len(e.stack); n > 0 {
			top := &e.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				if _, dup := top.keys[tok.String]; dup && e.opt.OnDuplicate != DupIgnore {
					si := issue(CodeDuplicateKey, "key '"+tok.String+"' duplicated")
					if e.opt.OnDuplicate == DupError {
						return token.Token{}, IssueError{si}
					}
					if e.opt.IssueSink != nil {
						e.opt.IssueSink(si)
					}
				}
				top.keys[tok.String] = struct{}{}
				top.expectingKey = false
				top.pendingKey = tok.String
			}
		}
	default:
		e.valueDone()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off >= 0 && off > e.opt.MaxBytes {
			return token.Token{}, IssueError{issue(CodeTruncated, "max bytes "+strconv.FormatInt(e.opt.MaxBytes, 10)+" exceeded")}
		}
	}
	return tok, nil
}

// valueDone flips the enclosing object back to expecting a key.
func (e *enforcingSource) valueDone() {
	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
			top.pendingKey = ""
		}
	}
}

func (e *enforcingSource) pathForToken(tok token.Token) string {
	if len(e.stack) == 0 {
		return ""
	}
	top := &e.stack[len(e.stack)-1]
	switch tok.Kind {
	case token.Key:
		return joinPointer(top.path, tok.String)
	case token.EndObject, token.EndArray:
		return top.path
	}
	if top.kind == kindArray {
		p := joinPointer(top.path, strconv.Itoa(top.nextIndex))
		top.nextIndex++
		return p
	}
	if !top.expectingKey {
		return joinPointer(top.path, top.pendingKey)
	}
	return top.path
}

func (e *enforcingSource) Location() int64 { return e.inner.Location() }

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinPointer(base, tok string) string {
	return base + "/" + pointerEscaper.Replace(tok)
}
