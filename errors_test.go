package specdoc_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/i18n"
)

func TestError_MessageAndSentinel(t *testing.T) {
	err := error(&specdoc.Error{Code: specdoc.CodeUnsupportedVersion, Stage: specdoc.StageResolve, Spec: "petstore", Version: "9.9"})
	if got := err.Error(); got != "resolve: specification petstore does not support version 9.9" {
		t.Fatalf("message = %q", got)
	}
	wrapped := fmt.Errorf("cli: %w", err)
	if !errors.Is(wrapped, specdoc.ErrUnsupportedVersion) {
		t.Fatalf("sentinel must survive wrapping")
	}
	if st, ok := specdoc.StageOf(wrapped); !ok || st != specdoc.StageResolve {
		t.Fatalf("StageOf = %s, %v", st, ok)
	}
	if _, ok := specdoc.StageOf(errors.New("x")); ok {
		t.Fatalf("foreign errors have no stage")
	}
}

func TestError_Localized(t *testing.T) {
	i18n.SetLanguage("ja")
	defer i18n.SetLanguage("en")
	err := &specdoc.Error{Code: specdoc.CodeUnknownSpecification, Stage: specdoc.StageResolve, Spec: "x"}
	if !strings.Contains(err.Error(), "未知の仕様です: x") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestViolations_ErrorSummarizes(t *testing.T) {
	var vs specdoc.Violations
	for i := range 5 {
		vs = append(vs, &specdoc.RuleViolation{Rule: "r", Path: fmt.Sprintf("/%d", i), Reason: "bad", Pos: specdoc.NoPos})
	}
	msg := vs.Error()
	if !strings.Contains(msg, "[r] at /0: bad") || !strings.Contains(msg, "(total 5)") || strings.Contains(msg, "/3") {
		t.Fatalf("message = %q", msg)
	}
	if !errors.Is(vs, specdoc.ErrRuleViolation) {
		t.Fatalf("violations must match ErrRuleViolation")
	}
	got, ok := specdoc.AsViolations(&specdoc.Error{Code: specdoc.CodeRuleViolation, Err: vs[0]})
	if !ok || len(got) != 1 {
		t.Fatalf("AsViolations = %v, %v", got, ok)
	}
	if _, ok := specdoc.AsViolations(nil); ok {
		t.Fatalf("nil error has no violations")
	}
}

func TestRuleViolation_UnwrapsCause(t *testing.T) {
	cause := errors.New("root cause")
	v := &specdoc.RuleViolation{Reason: "wrapped", Cause: cause, Pos: specdoc.NoPos}
	if !errors.Is(v, cause) || !errors.Is(v, specdoc.ErrRuleViolation) {
		t.Fatalf("unexpected Is behavior")
	}
	if got := specdoc.Violationf("n=%d", 3).Reason; got != "n=3" {
		t.Fatalf("reason = %q", got)
	}
}
