package token_test

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/reoring/specdoc/token"
)

func TestFromValue_SortedKeys(t *testing.T) {
	src, err := token.FromValue(map[string]any{"b": 1, "a": []any{true, nil, "x"}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	toks, err := token.Collect(src)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	var kinds []token.Kind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	want := []token.Kind{
		token.BeginObject,
		token.Key, token.BeginArray, token.Bool, token.Null, token.String, token.EndArray,
		token.Key, token.Number,
		token.EndObject,
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("kinds mismatch:\n got %v\nwant %v", kinds, want)
	}
	if toks[1].String != "a" || toks[7].String != "b" {
		t.Fatalf("expected sorted keys a,b; got %q,%q", toks[1].String, toks[7].String)
	}
}

func TestFromValue_RejectsNaN(t *testing.T) {
	if _, err := token.FromValue(math.NaN()); err == nil {
		t.Fatalf("expected error for NaN")
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	in := map[string]any{
		"name":  "pet",
		"count": json.Number("3"),
		"tags":  []any{"a", "b"},
		"meta":  map[string]any{"ok": true, "none": nil},
	}
	src, err := token.FromValue(in)
	if err != nil {
		t.Fatalf("from value: %v", err)
	}
	out, err := token.Decode(src)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", out, in)
	}
}

func TestDecode_Truncated(t *testing.T) {
	src := token.FromTokens(
		token.Token{Kind: token.BeginObject},
		token.Token{Kind: token.Key, String: "a"},
	)
	if _, err := token.Decode(src); err == nil {
		t.Fatalf("expected error for truncated stream")
	}
}

func TestDecode_UnexpectedToken(t *testing.T) {
	src := token.FromTokens(
		token.Token{Kind: token.BeginObject},
		token.Token{Kind: token.String, String: "no key"},
	)
	_, err := token.Decode(src)
	if !errors.Is(err, token.ErrUnexpectedToken) {
		t.Fatalf("expected ErrUnexpectedToken, got %v", err)
	}
}
