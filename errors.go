package specdoc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/specdoc/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnknownSpecification  = "unknown_specification"
	CodeUnsupportedVersion    = "unsupported_version"
	CodeNoDefaultVersion      = "no_default_version"
	CodeUnsupportedExtension  = "unsupported_extension"
	CodeDuplicateRegistration = "duplicate_registration"
	CodeInvalidRegistration   = "invalid_registration"
	CodeRuleViolation         = "rule_violation"
	CodeReaderFailure         = "reader_failure"
	CodeParserFailure         = "parser_failure"
	CodeBuilderFailure        = "builder_failure"
)

// Sentinel errors; every *Error matches exactly one of them with errors.Is.
var (
	ErrUnknownSpecification  = errors.New("specdoc: unknown specification")
	ErrUnsupportedVersion    = errors.New("specdoc: unsupported version")
	ErrNoDefaultVersion      = errors.New("specdoc: no default version")
	ErrUnsupportedExtension  = errors.New("specdoc: unsupported extension")
	ErrDuplicateRegistration = errors.New("specdoc: duplicate registration")
	ErrInvalidRegistration   = errors.New("specdoc: invalid registration")
	ErrRuleViolation         = errors.New("specdoc: rule violation")
	ErrReaderFailure         = errors.New("specdoc: reader failure")
	ErrParserFailure         = errors.New("specdoc: parser failure")
	ErrBuilderFailure        = errors.New("specdoc: builder failure")
)

var sentinels = map[string]error{
	CodeUnknownSpecification:  ErrUnknownSpecification,
	CodeUnsupportedVersion:    ErrUnsupportedVersion,
	CodeNoDefaultVersion:      ErrNoDefaultVersion,
	CodeUnsupportedExtension:  ErrUnsupportedExtension,
	CodeDuplicateRegistration: ErrDuplicateRegistration,
	CodeInvalidRegistration:   ErrInvalidRegistration,
	CodeRuleViolation:         ErrRuleViolation,
	CodeReaderFailure:         ErrReaderFailure,
	CodeParserFailure:         ErrParserFailure,
	CodeBuilderFailure:        ErrBuilderFailure,
}

// Error is the engine's error type. It names the stage that failed and wraps
// the underlying cause, if any.
type Error struct {
	Code      string
	Stage     Stage
	Spec      string
	Version   string
	Extension string
	Key       string // registration key for register-stage errors
	Err       error
}

func (e *Error) Error() string {
	data := map[string]string{
		"spec":      e.Spec,
		"version":   e.Version,
		"extension": e.Extension,
		"key":       e.Key,
	}
	b := &strings.Builder{}
	b.WriteString(e.Stage.String())
	b.WriteString(": ")
	b.WriteString(i18n.T(e.Code, data))
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches the sentinel for the error's code.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

func (e *Error) Unwrap() error { return e.Err }

// StageOf reports the stage that produced err, if err came from the engine.
func StageOf(err error) (Stage, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage, true
	}
	return 0, false
}

// RuleViolation reports a rule that rejected an element.
type RuleViolation struct {
	Spec      string
	Version   string
	Rule      string
	Path      string // JSON Pointer of the offending element.
	Pos       Pos
	Direction Direction
	Reason    string
	// Params carries structured parameters (e.g., {"want":"3.0", "got":"2.0"})
	// for i18n and observability.
	Params map[string]any
	Cause  error
}

// Violationf creates a violation with a formatted reason. The engine fills in
// the path, rule and position when the violation leaves a rule.
func Violationf(format string, args ...any) *RuleViolation {
	return &RuleViolation{Reason: fmt.Sprintf(format, args...), Pos: NoPos}
}

func (v *RuleViolation) Error() string {
	b := &strings.Builder{}
	b.WriteString(i18n.T(CodeRuleViolation, nil))
	if v.Rule != "" {
		fmt.Fprintf(b, " [%s]", v.Rule)
	}
	path := v.Path
	if path == "" {
		path = "/"
	}
	fmt.Fprintf(b, " at %s", path)
	if v.Pos.Line > 0 || v.Pos.Offset >= 0 {
		fmt.Fprintf(b, " (%s)", v.Pos)
	}
	if v.Reason != "" {
		b.WriteString(": ")
		b.WriteString(v.Reason)
	}
	return b.String()
}

func (v *RuleViolation) Is(target error) bool { return target == ErrRuleViolation }

func (v *RuleViolation) Unwrap() error { return v.Cause }

// Violations is a collection of rule violations that implements error.
type Violations []*RuleViolation

// Error summarizes the first few violations.
func (vs Violations) Error() string {
	if len(vs) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(vs), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(vs[i].Error())
	}
	if len(vs) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(vs))
	}
	return b.String()
}

func (vs Violations) Is(target error) bool { return len(vs) > 0 && target == ErrRuleViolation }

// AsViolations extracts violations from an error. A single *RuleViolation is
// returned as a one-element slice.
func AsViolations(err error) (Violations, bool) {
	if err == nil {
		return nil, false
	}
	var vs Violations
	if errors.As(err, &vs) {
		return vs, true
	}
	var v *RuleViolation
	if errors.As(err, &v) {
		return Violations{v}, true
	}
	return nil, false
}

func registrationError(code, spec, key string, err error) *Error {
	return &Error{Code: code, Stage: StageRegister, Spec: spec, Key: key, Err: err}
}
