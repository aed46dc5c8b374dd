package builder_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/builder"
)

func sample() *specdoc.Element {
	return specdoc.NewObject(
		specdoc.Field("z", specdoc.NewString("<b>")),
		specdoc.Field("a", specdoc.NewArray(specdoc.NewNumber("1.50"), specdoc.NewBool(true), specdoc.NewNull())),
		specdoc.Field("s", specdoc.NewString("true")),
	)
}

func TestJSON_PreservesOrderAndNumberText(t *testing.T) {
	out, err := builder.JSON().Build(context.Background(), sample(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := `{"z":"<b>","a":[1.50,true,null],"s":"true"}`
	if string(out) != want {
		t.Fatalf("got %s\nwant %s", out, want)
	}
}

func TestJSON_KeepsHTMLCharacters(t *testing.T) {
	el := specdoc.NewObject(specdoc.Field("c", specdoc.NewString("<c> & \"q\"\n")))
	for _, b := range []specdoc.Builder{builder.JSON(), builder.JSON(builder.WithIndent("  "))} {
		out, err := b.Build(context.Background(), el, nil)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if !strings.Contains(string(out), `"<c> & \"q\"\n"`) {
			t.Fatalf("html characters escaped: %s", out)
		}
	}
}

func TestJSON_Indent(t *testing.T) {
	out, err := builder.JSON(builder.WithIndent("  "), builder.WithTrailingNewline()).
		Build(context.Background(), specdoc.NewObject(specdoc.Field("a", specdoc.NewInt(1))), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if string(out) != "{\n  \"a\": 1\n}\n" {
		t.Fatalf("got %q", out)
	}
}

func TestJSON_RejectsInvalidNumber(t *testing.T) {
	_, err := builder.JSON().Build(context.Background(), specdoc.NewArray(specdoc.NewNumber("NaN")), nil)
	if err == nil {
		t.Fatalf("expected error for invalid number text")
	}
}

func TestJSON_AppliesBuildRulesOnCopy(t *testing.T) {
	upper := specdoc.NewRule("upper", func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
		if rc.Direction != specdoc.DirectionBuild {
			return el, nil
		}
		return specdoc.NewString(strings.ToUpper(el.Text())), nil
	}, specdoc.KindString)
	rs := specdoc.MustRuleSet("demo", "1", upper)
	in := specdoc.NewObject(specdoc.Field("a", specdoc.NewString("x")))

	out, err := builder.JSON().Build(context.Background(), in, rs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if string(out) != `{"a":"X"}` {
		t.Fatalf("got %s", out)
	}
	if in.Member("a").Text() != "x" {
		t.Fatalf("input tree was modified")
	}
}

func TestJSON_BuildViolation(t *testing.T) {
	deny := specdoc.NewRule("deny", func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
		return nil, rc.Path.Violation("not allowed")
	}, specdoc.KindBool)
	rs := specdoc.MustRuleSet("demo", "1", deny)
	_, err := builder.JSON().Build(context.Background(), sample(), rs)
	if !errors.Is(err, specdoc.ErrRuleViolation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	var v *specdoc.RuleViolation
	if !errors.As(err, &v) || v.Path != "/a/1" || v.Direction != specdoc.DirectionBuild {
		t.Fatalf("unexpected violation: %+v", v)
	}
}

func TestJSON_NilTree(t *testing.T) {
	if _, err := builder.JSON().Build(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil tree")
	}
}

func TestYAML_PreservesOrderAndQuotesAmbiguousStrings(t *testing.T) {
	out, err := builder.YAML().Build(context.Background(), sample(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "z: <b>\na:\n  - 1.50\n  - true\n  - null\ns: \"true\"\n"
	if string(out) != want {
		t.Fatalf("got %q\nwant %q", out, want)
	}
}

func TestMarshalJSON_NoRules(t *testing.T) {
	out, err := builder.MarshalJSON(specdoc.NewObject())
	if err != nil || string(out) != "{}" {
		t.Fatalf("got %s, %v", out, err)
	}
}
