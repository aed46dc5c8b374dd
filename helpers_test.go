package specdoc_test

import (
	"context"
	"testing"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/builder"
	"github.com/reoring/specdoc/reader"
)

// identity is a rule that accepts every element unchanged.
var identity = specdoc.NewRule("identity", func(_ specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
	return el, nil
})

// newSpec builds a complete specification "demo" with JSON and YAML readers.
// Extra options are applied after the defaults.
func newSpec(t testing.TB, extra ...specdoc.SpecOption) *specdoc.Specification {
	t.Helper()
	opts := []specdoc.SpecOption{
		specdoc.WithParser(specdoc.NewTreeParser(specdoc.ParseOptions{})),
		specdoc.WithBuilder(builder.JSON()),
		specdoc.WithReader("json", reader.JSON()),
		specdoc.WithReader("yaml", reader.YAML()),
	}
	s, err := specdoc.NewSpecification("demo", append(opts, extra...)...)
	if err != nil {
		t.Fatalf("new specification: %v", err)
	}
	return s
}

func versioned(t testing.TB, rules ...specdoc.Rule) *specdoc.Specification {
	t.Helper()
	return newSpec(t,
		specdoc.WithRuleSet(specdoc.MustRuleSet("demo", "1", rules...)),
		specdoc.WithDefaultVersion("1"),
	)
}

func newRegistry(t testing.TB, spec *specdoc.Specification, opts ...specdoc.RegistryOption) *specdoc.Registry {
	t.Helper()
	reg := specdoc.NewRegistry(opts...)
	if err := reg.Register(spec); err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

func analyzeJSON(t testing.TB, reg *specdoc.Registry, doc string, opts ...specdoc.AnalyzeOption) (*specdoc.Result, error) {
	t.Helper()
	return reg.Analyze(context.Background(), "demo", specdoc.Input{Extension: "json", Data: []byte(doc)}, opts...)
}
