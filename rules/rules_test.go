package rules_test

import (
	"context"
	"errors"
	"testing"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/reader"
	"github.com/reoring/specdoc/rules"
)

func parse(t *testing.T, src string, rs ...specdoc.Rule) (*specdoc.Element, error) {
	t.Helper()
	c, err := reader.JSON().Read(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	set := specdoc.MustRuleSet("test", "1", rs...)
	return specdoc.NewTreeParser(specdoc.ParseOptions{}).Parse(context.Background(), c, set)
}

func violation(t *testing.T, err error) *specdoc.RuleViolation {
	t.Helper()
	var v *specdoc.RuleViolation
	if !errors.As(err, &v) {
		t.Fatalf("expected *RuleViolation, got %T %v", err, err)
	}
	return v
}

func TestAt_ScopesByPointerPattern(t *testing.T) {
	r := rules.At("/paths/*", rules.KeyPattern(`^[a-z]+$`))
	if _, err := parse(t, `{"paths":{"/pets":{"get":{}}},"x":{"GET":1}}`, r); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_, err := parse(t, `{"paths":{"/pets":{"GET":{}}}}`, r)
	v := violation(t, err)
	if v.Path != "/paths/~1pets/GET" {
		t.Fatalf("path = %q", v.Path)
	}
	if v.Rule != "keyPattern@/paths/*" {
		t.Fatalf("rule = %q", v.Rule)
	}
}

func TestAt_RootOnly(t *testing.T) {
	r := rules.At("/", rules.RequireMembers("a"))
	if _, err := parse(t, `{"a":{"b":{}}}`, r); err != nil {
		t.Fatalf("nested objects must not be checked: %v", err)
	}
	if _, err := parse(t, `{"b":1}`, r); !errors.Is(err, specdoc.ErrRuleViolation) {
		t.Fatalf("expected violation, got %v", err)
	}
}

func TestAt_DoubleStar(t *testing.T) {
	r := rules.At("/**", rules.TrimSpace())
	el, err := parse(t, `{"a":[" x "],"b":{"c":" y"}}`, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if el.Member("a").Children[0].Text() != "x" || rules.Lookup(el, "/b/c").Text() != "y" {
		t.Fatalf("unexpected tree: %s", el)
	}
}

func TestAt_InvalidPatternPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	rules.At("/[", rules.TrimSpace())
}

func TestAnd_SequentialAndShortCircuit(t *testing.T) {
	r := rules.And("both", rules.TrimSpace(), rules.Const("x"))
	if _, err := parse(t, `[" x "]`, r); err != nil {
		t.Fatalf("second rule must see trimmed value: %v", err)
	}
	if !specdoc.IsLossy(r) {
		t.Fatalf("And of a lossy rule must be lossy")
	}
}

func TestOr_FirstSuccessWins(t *testing.T) {
	r := rules.Or("either", rules.Const("a"), rules.Const("b"))
	if _, err := parse(t, `["a","b"]`, r); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_, err := parse(t, `["c"]`, r)
	if v := violation(t, err); v.Params["want"] != "a" {
		t.Fatalf("expected first rejection, got %+v", v)
	}
}

func TestDirectionFilters(t *testing.T) {
	strip := rules.OnBuild(rules.StripMembers("x-*"))
	el, err := parse(t, `{"x-a":1,"b":2}`, strip)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if el.Member("x-a") == nil {
		t.Fatalf("build-only rule ran while parsing")
	}
	rs := specdoc.MustRuleSet("test", "1", strip)
	out, err := rs.Walk(context.Background(), el.Clone(), specdoc.DirectionBuild)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if out.Member("x-a") != nil || out.Member("b") == nil {
		t.Fatalf("unexpected build tree: %s", out)
	}
	if rs.Lossless() {
		t.Fatalf("StripMembers must make the set lossy")
	}
}

func TestConditional_Then(t *testing.T) {
	r := rules.At("/", rules.If("/swagger", rules.Eq, "2.0").Then("v2", rules.RequireMembers("host")))
	if _, err := parse(t, `{"openapi":"3.0.0"}`, r); err != nil {
		t.Fatalf("condition must not hold: %v", err)
	}
	_, err := parse(t, `{"swagger":"2.0"}`, r)
	if v := violation(t, err); v.Params["member"] != "host" {
		t.Fatalf("unexpected violation: %+v", v)
	}
}

func TestConditional_NumericAndComposite(t *testing.T) {
	el, err := parse(t, `{"n":10,"s":"x"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cases := []struct {
		name string
		c    rules.Conditional
		want bool
	}{
		{"gt", rules.If("/n", rules.Gt, "9.5"), true},
		{"le", rules.If("/n", rules.Le, "1e1"), true},
		{"lt-string", rules.If("/s", rules.Lt, "1"), false},
		{"eq-number-text", rules.If("/n", rules.Eq, "10.0"), true},
		{"ne", rules.If("/s", rules.Ne, "y"), true},
		{"exists", rules.If("/missing", rules.Exists, ""), false},
		{"all", rules.If("/n", rules.Ge, "10").And(rules.If("/s", rules.Eq, "x")), true},
		{"any", rules.If("/n", rules.Lt, "0").Or(rules.If("/s", rules.Eq, "x")), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.Holds(el); got != tc.want {
				t.Fatalf("Holds = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEnumPrefixPattern(t *testing.T) {
	if _, err := parse(t, `["get"]`, rules.Enum("get", "put")); err != nil {
		t.Fatalf("enum: %v", err)
	}
	if _, err := parse(t, `["head"]`, rules.Enum("get", "put")); err == nil {
		t.Fatalf("expected enum violation")
	}
	if _, err := parse(t, `["2.0"]`, rules.Prefix("3.0")); err == nil {
		t.Fatalf("expected prefix violation")
	}
	if _, err := parse(t, `["abc"]`, rules.Pattern(`^[a-z]+$`)); err != nil {
		t.Fatalf("pattern: %v", err)
	}
}

func TestMinItems(t *testing.T) {
	if _, err := parse(t, `{"a":[]}`, rules.At("/a", rules.MinItems(1))); err == nil {
		t.Fatalf("expected minItems violation")
	}
}

func TestUniqueBy(t *testing.T) {
	_, err := parse(t, `[{"name":"a"},{"name":"b"},{"name":"a"}]`, rules.UniqueBy("name"))
	v := violation(t, err)
	if v.Path != "/2" || v.Params["first"] != 0 {
		t.Fatalf("unexpected violation: %+v", v)
	}
}

func TestDefault_AddsMissingMember(t *testing.T) {
	def := specdoc.NewObject(specdoc.Field("k", specdoc.NewString("v")))
	el, err := parse(t, `{"a":1}`, rules.At("/", rules.Default("meta", def)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := rules.Lookup(el, "/meta/k")
	if got == nil || got.Path != "/meta/k" {
		t.Fatalf("default not applied with paths: %s", el)
	}
}

func TestLowercaseKeys(t *testing.T) {
	el, err := parse(t, `{"GET":1,"Put":2}`, rules.LowercaseKeys())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if el.Member("get") == nil || el.Member("put").Path != "/put" {
		t.Fatalf("unexpected tree: %s", el)
	}
	if _, err := parse(t, `{"a":1,"A":2}`, rules.LowercaseKeys()); err == nil {
		t.Fatalf("expected collision violation")
	}
}

func TestRemove_ArrayIndexesStayDense(t *testing.T) {
	r := rules.When(func(_ specdoc.RuleContext, el *specdoc.Element) bool { return el.Kind == specdoc.KindNull }, rules.Remove())
	el, err := parse(t, `[null,"a",null,"b"]`, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if el.Len() != 2 || el.Children[1].Path != "/1" {
		t.Fatalf("unexpected tree: %s", el)
	}
}

func TestDirection_UnscopedTransformRunsTwice(t *testing.T) {
	suffix := specdoc.NewRule("suffix", func(_ specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
		return specdoc.NewString(el.Value.(string) + "x"), nil
	}, specdoc.KindString)

	run := func(r specdoc.Rule) string {
		t.Helper()
		rs, err := specdoc.NewRuleSet("s", "1", r)
		if err != nil {
			t.Fatalf("ruleset: %v", err)
		}
		el, err := rs.Walk(context.Background(), specdoc.NewString("a"), specdoc.DirectionParse)
		if err != nil {
			t.Fatalf("parse walk: %v", err)
		}
		el, err = rs.Walk(context.Background(), el.Clone(), specdoc.DirectionBuild)
		if err != nil {
			t.Fatalf("build walk: %v", err)
		}
		return el.Value.(string)
	}

	if got := run(suffix); got != "axx" {
		t.Fatalf("unscoped rule: got %q, want %q", got, "axx")
	}
	if got := run(rules.OnParse(suffix)); got != "ax" {
		t.Fatalf("OnParse rule: got %q, want %q", got, "ax")
	}
}
