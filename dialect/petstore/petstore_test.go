package petstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/dialect/petstore"
)

func newRegistry(t *testing.T, opts ...petstore.Option) *specdoc.Registry {
	t.Helper()
	reg := specdoc.NewRegistry()
	if err := reg.Register(petstore.MustNew(opts...)); err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

func readFile(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return b
}

func TestNew_Shape(t *testing.T) {
	s := petstore.MustNew()
	if s.Name() != petstore.Name {
		t.Fatalf("name = %q", s.Name())
	}
	if got := s.Versions(); len(got) != 2 || got[0] != "2.0" || got[1] != "3.0" {
		t.Fatalf("versions = %v", got)
	}
	if s.DefaultVersionName() != "3.0" {
		t.Fatalf("default = %q", s.DefaultVersionName())
	}
	want := []string{"json", "yaml", "yml", "toml", "cue"}
	got := s.SupportedExtensions()
	if len(got) != len(want) {
		t.Fatalf("extensions = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("extensions = %v, want %v", got, want)
		}
	}
	for _, v := range s.Versions() {
		rs, err := s.GetVersion(v)
		if err != nil || rs.Version() != v || rs.Spec() != petstore.Name {
			t.Fatalf("GetVersion(%s) = %v, %v", v, rs, err)
		}
	}
}

func TestAnalyze_DefaultEqualsExplicitV3(t *testing.T) {
	reg := newRegistry(t)
	in := specdoc.Input{Extension: "yaml", Data: readFile(t, "petstore-v3.yaml")}

	def, err := reg.Analyze(context.Background(), petstore.Name, in)
	if err != nil {
		t.Fatalf("default analyze: %v", err)
	}
	exp, err := reg.Analyze(context.Background(), petstore.Name, in, specdoc.WithVersion("3.0"))
	if err != nil {
		t.Fatalf("explicit analyze: %v", err)
	}
	if def.Version != "3.0" || exp.Version != "3.0" {
		t.Fatalf("versions = %q, %q", def.Version, exp.Version)
	}
	if string(def.Output) != string(exp.Output) {
		t.Fatalf("default and explicit outputs differ:\n%s\n%s", def.Output, exp.Output)
	}
	if def.State != specdoc.StateBuilt {
		t.Fatalf("state = %s", def.State)
	}
}

func TestAnalyze_UnsupportedVersion(t *testing.T) {
	reg := newRegistry(t)
	res, err := reg.Analyze(context.Background(), petstore.Name,
		specdoc.Input{Extension: "yaml", Data: readFile(t, "petstore-v3.yaml")}, specdoc.WithVersion("9.9"))
	if !errors.Is(err, specdoc.ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	if res.State != specdoc.StateFailed || res.Stage != specdoc.StageResolve || res.Output != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAnalyze_AllFormatsAgree(t *testing.T) {
	reg := newRegistry(t)
	var base *specdoc.Element
	for _, name := range []string{"petstore-v3.yaml", "petstore-v3.json", "petstore-v3.toml", "petstore-v3.cue"} {
		t.Run(name, func(t *testing.T) {
			res, err := reg.Analyze(context.Background(), petstore.Name,
				specdoc.Input{Extension: filepath.Ext(name), Data: readFile(t, name)})
			if err != nil {
				t.Fatalf("analyze: %v", err)
			}
			if base == nil {
				base = res.Tree
				return
			}
			if !base.Equal(res.Tree) {
				t.Fatalf("tree differs from yaml:\n%s\n%s", base, res.Tree)
			}
		})
	}
}

func TestAnalyze_V2(t *testing.T) {
	reg := newRegistry(t)
	in := specdoc.Input{Extension: "yml", Data: readFile(t, "petstore-v2.yaml")}
	if _, err := reg.Analyze(context.Background(), petstore.Name, in, specdoc.WithVersion("2.0")); err != nil {
		t.Fatalf("v2 analyze: %v", err)
	}
	_, err := reg.Analyze(context.Background(), petstore.Name, in)
	if !errors.Is(err, specdoc.ErrRuleViolation) {
		t.Fatalf("v2 document under 3.0 must violate, got %v", err)
	}
	if st, _ := specdoc.StageOf(err); st != specdoc.StageParse {
		t.Fatalf("stage = %s", st)
	}
}

func TestAnalyze_RuleViolations(t *testing.T) {
	reg := newRegistry(t)
	cases := []struct {
		name string
		doc  string
		path string
	}{
		{"missing title", `{"openapi":"3.0.0","info":{},"paths":{}}`, "/info"},
		{"bad path key", `{"openapi":"3.0.0","info":{"title":"t"},"paths":{"pets":{}}}`, "/paths/pets"},
		{"upper-case method", `{"openapi":"3.0.0","info":{"title":"t"},"paths":{"/p":{"GET":{}}}}`, "/paths/~1p/GET"},
		{"wrong openapi", `{"openapi":"3.1.0","info":{"title":"t"},"paths":{}}`, "/openapi"},
		{"duplicate tag", `{"openapi":"3.0.0","info":{"title":"t"},"paths":{},"tags":[{"name":"a"},{"name":"a"}]}`, "/tags/1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.Analyze(context.Background(), petstore.Name, specdoc.Input{Extension: "json", Data: []byte(tc.doc)})
			var v *specdoc.RuleViolation
			if !errors.As(err, &v) {
				t.Fatalf("expected violation, got %v", err)
			}
			if v.Path != tc.path {
				t.Fatalf("path = %q, want %q", v.Path, tc.path)
			}
		})
	}
}

func TestAnalyze_RoundTrip(t *testing.T) {
	reg := newRegistry(t)
	res, err := reg.Analyze(context.Background(), petstore.Name,
		specdoc.Input{Extension: "yaml", Data: readFile(t, "petstore-v3.yaml")})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	again, err := reg.Analyze(context.Background(), petstore.Name, specdoc.Input{Extension: "json", Data: res.Output})
	if err != nil {
		t.Fatalf("re-analyze: %v", err)
	}
	if !res.Tree.Equal(again.Tree) {
		t.Fatalf("round trip changed the document")
	}
}

func TestAnalyze_YAMLOutput(t *testing.T) {
	reg := newRegistry(t, petstore.WithYAMLOutput())
	res, err := reg.Analyze(context.Background(), petstore.Name,
		specdoc.Input{Extension: "json", Data: readFile(t, "petstore-v3.json")})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Output) == 0 || res.Output[0] == '{' {
		t.Fatalf("expected YAML output, got %s", res.Output)
	}
}

func TestAnalyze_DuplicateKeysRejected(t *testing.T) {
	reg := newRegistry(t)
	_, err := reg.Analyze(context.Background(), petstore.Name,
		specdoc.Input{Extension: "json", Data: []byte(`{"openapi":"3.0.0","openapi":"3.0.1","info":{"title":"t"},"paths":{}}`)})
	if !errors.Is(err, specdoc.ErrParserFailure) {
		t.Fatalf("expected parser failure, got %v", err)
	}
}
