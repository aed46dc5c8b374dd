package engine

import (
	"errors"
	"testing"

	"github.com/reoring/specdoc/token"
)

func obj(members ...token.Token) []token.Token {
	out := []token.Token{{Kind: token.BeginObject}}
	out = append(out, members...)
	return append(out, token.Token{Kind: token.EndObject})
}

func key(k string) token.Token { return token.Token{Kind: token.Key, String: k} }
func str(s string) token.Token { return token.Token{Kind: token.String, String: s} }

func TestEnforce_DuplicateKeyError(t *testing.T) {
	toks := obj(key("a"), str("1"), key("b"), str("2"), key("a"), str("3"))
	src := WrapWithEnforcement(token.FromTokens(toks...), EnforceOptions{OnDuplicate: DupError})
	_, err := token.Collect(src)
	var ie IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IssueError, got %v", err)
	}
	if ie.Code != CodeDuplicateKey || ie.Path != "/a" {
		t.Fatalf("unexpected issue: %+v", ie.SimpleIssue)
	}
}

func TestEnforce_DuplicateKeyWarnUsesSink(t *testing.T) {
	toks := obj(key("a"), str("1"), key("a"), str("2"))
	var got []SimpleIssue
	src := WrapWithEnforcement(token.FromTokens(toks...), EnforceOptions{
		OnDuplicate: DupWarn,
		IssueSink:   func(si SimpleIssue) { got = append(got, si) },
	})
	if _, err := token.Collect(src); err != nil {
		t.Fatalf("warn mode must not fail: %v", err)
	}
	if len(got) != 1 || got[0].Code != CodeDuplicateKey {
		t.Fatalf("expected one duplicate issue, got %+v", got)
	}
}

func TestEnforce_NestedKeysAreScoped(t *testing.T) {
	inner := obj(key("a"), str("x"))
	toks := []token.Token{{Kind: token.BeginObject}, key("a")}
	toks = append(toks, inner...)
	toks = append(toks, key("b"), str("y"), token.Token{Kind: token.EndObject})
	src := WrapWithEnforcement(token.FromTokens(toks...), EnforceOptions{OnDuplicate: DupError})
	if _, err := token.Collect(src); err != nil {
		t.Fatalf("same key at different depths is not a duplicate: %v", err)
	}
}

func TestEnforce_MaxDepth(t *testing.T) {
	toks := []token.Token{
		{Kind: token.BeginArray},
		{Kind: token.BeginArray},
		{Kind: token.BeginArray},
		{Kind: token.EndArray},
		{Kind: token.EndArray},
		{Kind: token.EndArray},
	}
	src := WrapWithEnforcement(token.FromTokens(toks...), EnforceOptions{MaxDepth: 2})
	_, err := token.Collect(src)
	var ie IssueError
	if !errors.As(err, &ie) || ie.Code != CodeDepthExceeded {
		t.Fatalf("expected depth issue, got %v", err)
	}
	if ie.Path != "/0/0" {
		t.Fatalf("expected path /0/0, got %q", ie.Path)
	}
}

func TestEnforce_DisabledReturnsInner(t *testing.T) {
	inner := token.FromTokens(str("x"))
	if WrapWithEnforcement(inner, EnforceOptions{}) != inner {
		t.Fatalf("expected inner source when enforcement disabled")
	}
}
