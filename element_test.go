package specdoc_test

import (
	"encoding/json"
	"testing"

	specdoc "github.com/reoring/specdoc"
)

func TestElement_EqualIgnoresMemberOrderAndNumberSpelling(t *testing.T) {
	a := specdoc.NewObject(
		specdoc.Field("x", specdoc.NewNumber("1.0")),
		specdoc.Field("y", specdoc.NewArray(specdoc.NewBool(true), specdoc.NewNull())),
	)
	b := specdoc.NewObject(
		specdoc.Field("y", specdoc.NewArray(specdoc.NewBool(true), specdoc.NewNull())),
		specdoc.Field("x", specdoc.NewNumber("1e0")),
	)
	if !a.Equal(b) {
		t.Fatalf("expected equal: %s vs %s", a, b)
	}
	c := b.Clone()
	c.Member("y").Children = c.Member("y").Children[:1]
	if a.Equal(c) {
		t.Fatalf("expected different arrays to differ")
	}
	if specdoc.NewString("1").Equal(specdoc.NewNumber("1")) {
		t.Fatalf("kinds must match")
	}
}

func TestElement_CloneIsDeep(t *testing.T) {
	a := specdoc.NewObject(specdoc.Field("k", specdoc.NewObject(specdoc.Field("n", specdoc.NewInt(1)))))
	b := a.Clone()
	b.Member("k").SetMember("n", specdoc.NewInt(2))
	if a.Member("k").Member("n").Text() != "1" {
		t.Fatalf("clone shares children")
	}
}

func TestElement_SetAndDeleteMember(t *testing.T) {
	el := specdoc.NewObject(specdoc.Field("a", specdoc.NewInt(1)))
	el.SetMember("b", specdoc.NewString("x"))
	el.SetMember("a", specdoc.NewInt(3))
	if el.String() != `{"a":3,"b":"x"}` {
		t.Fatalf("got %s", el)
	}
	if !el.DeleteMember("a") || el.DeleteMember("zz") || el.Len() != 1 {
		t.Fatalf("unexpected delete result: %s", el)
	}
}

func TestElement_Interface(t *testing.T) {
	el := specdoc.NewObject(
		specdoc.Field("n", specdoc.NewNumber("2.5")),
		specdoc.Field("l", specdoc.NewArray(specdoc.NewString("s"), specdoc.NewNull())),
	)
	m, ok := el.Interface().(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", el.Interface())
	}
	if m["n"] != json.Number("2.5") {
		t.Fatalf("n = %#v", m["n"])
	}
	l := m["l"].([]any)
	if l[0] != "s" || l[1] != nil {
		t.Fatalf("l = %#v", l)
	}
}

func TestElementFromValue(t *testing.T) {
	el, err := specdoc.ElementFromValue(map[string]any{"b": 1, "a": []any{true, "x"}})
	if err != nil {
		t.Fatalf("from value: %v", err)
	}
	if el.String() != `{"a":[true,"x"],"b":1}` {
		t.Fatalf("got %s", el)
	}
	if el.Member("a").Children[1].Path != "/a/1" {
		t.Fatalf("path = %q", el.Member("a").Children[1].Path)
	}
}

func TestPathRef(t *testing.T) {
	p := specdoc.Root().Field("paths").Field("/pets").Index(0)
	if p.Pointer() != "/paths/~1pets/0" {
		t.Fatalf("pointer = %q", p.Pointer())
	}
	if got := specdoc.At(p.Pointer()).Segments(); len(got) != 3 || got[1] != "/pets" {
		t.Fatalf("segments = %v", got)
	}
	if specdoc.Root().Pointer() != "/" {
		t.Fatalf("root pointer = %q", specdoc.Root().Pointer())
	}
	v := p.Violation("bad", "want", 1)
	if v.Path != "/paths/~1pets/0" || v.Params["want"] != 1 {
		t.Fatalf("violation = %+v", v)
	}
}
