package specdoc

import (
	"context"
	"fmt"
	"strings"
)

// Severity expresses the severity level for input findings.
type Severity int

const (
	SeverityIgnore Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "ignore"
	}
}

// ParseSeverity parses "ignore", "warn" or "error".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return SeverityIgnore, nil
	case "warn", "warning":
		return SeverityWarn, nil
	case "error":
		return SeverityError, nil
	default:
		return SeverityIgnore, fmt.Errorf("unknown severity %q", s)
	}
}

// Warning is a non-fatal finding reported while parsing.
type Warning struct {
	Code    string
	Path    string
	Message string
	Pos     Pos
}

// ParseOptions bundles parsing options for the TreeParser.
type ParseOptions struct {
	// OnDuplicateKey controls duplicate object keys in the token stream.
	OnDuplicateKey Severity
	// MaxDepth limits container nesting; 0 disables the check.
	MaxDepth int
	// MaxBytes limits consumed input for readers that report offsets; 0
	// disables the check.
	MaxBytes int64
	// Collect keeps parsing after a rule violation and reports all of them
	// together as Violations. The default stops at the first violation.
	Collect bool
	// OnWarning receives non-fatal findings.
	OnWarning func(Warning)
}

// ---- Parse-time context options ----

type contextKey int

const (
	_ctxKeyParseOptions contextKey = iota
)

// ContextWithParseOptions returns a child context carrying parse options. Parsers
// that honor them (such as TreeParser) prefer them over their own defaults.
func ContextWithParseOptions(ctx context.Context, opt ParseOptions) context.Context {
	return context.WithValue(ctx, _ctxKeyParseOptions, opt)
}

// ParseOptionsFrom returns the parse options carried by ctx, if any.
func ParseOptionsFrom(ctx context.Context) (ParseOptions, bool) {
	opt, ok := ctx.Value(_ctxKeyParseOptions).(ParseOptions)
	return opt, ok
}
