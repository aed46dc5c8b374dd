// Package petstore is a reference specdoc dialect for API descriptions in the
// style of the Swagger 2.0 and OpenAPI 3.0 petstore documents.
package petstore

import (
	"fmt"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/builder"
	"github.com/reoring/specdoc/reader"
	"github.com/reoring/specdoc/rules"
)

const (
	// Name is the registered specification name.
	Name = "petstore"
	// V2 and V3 are the supported versions; V3 is the default.
	V2 = "2.0"
	V3 = "3.0"
)

// methods are the operation keys allowed under a path item besides the
// shared ones (parameters, summary, description, servers, $ref, x-*).
const pathItemKeys = `^(get|put|post|delete|options|head|patch|trace|parameters|summary|description|servers|\$ref|x-.*)$`

// Option customizes the dialect.
type Option func(*config)

type config struct {
	builder specdoc.Builder
	parse   specdoc.ParseOptions
}

// WithBuilder replaces the default JSON builder.
func WithBuilder(b specdoc.Builder) Option { return func(c *config) { c.builder = b } }

// WithYAMLOutput builds YAML instead of JSON.
func WithYAMLOutput() Option { return WithBuilder(builder.YAML()) }

// WithParseOptions sets the TreeParser defaults.
func WithParseOptions(opt specdoc.ParseOptions) Option { return func(c *config) { c.parse = opt } }

// New returns the petstore Specification.
func New(opts ...Option) (*specdoc.Specification, error) {
	cfg := config{
		builder: builder.JSON(builder.WithIndent("  ")),
		parse:   specdoc.ParseOptions{OnDuplicateKey: specdoc.SeverityError},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	v2, err := specdoc.NewRuleSet(Name, V2, V2Rules()...)
	if err != nil {
		return nil, err
	}
	v3, err := specdoc.NewRuleSet(Name, V3, V3Rules()...)
	if err != nil {
		return nil, err
	}
	spec, err := specdoc.NewSpecification(Name,
		specdoc.WithParser(specdoc.NewTreeParser(cfg.parse)),
		specdoc.WithBuilder(cfg.builder),
		specdoc.WithReader("json", reader.JSON()),
		specdoc.WithReader("yaml", reader.YAML()),
		specdoc.WithReader("yml", reader.YAML()),
		specdoc.WithReader("toml", reader.TOML()),
		specdoc.WithReader("cue", reader.CUE()),
		specdoc.WithRuleSet(v2),
		specdoc.WithRuleSet(v3),
		specdoc.WithDefaultVersion(V3),
	)
	if err != nil {
		return nil, fmt.Errorf("petstore: %w", err)
	}
	return spec, nil
}

// MustNew is New that panics on error.
func MustNew(opts ...Option) *specdoc.Specification {
	s, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// commonRules apply to both versions.
func commonRules() []specdoc.Rule {
	return []specdoc.Rule{
		rules.At("/info", rules.RequireMembers("title")),
		rules.At("/info/title", rules.Pattern(`\S`)),
		rules.At("/paths", rules.KeyPattern(`^/`)),
		rules.At("/paths/*", rules.KeyPattern(pathItemKeys)),
		rules.At("/tags", rules.UniqueBy("name")),
	}
}

// V2Rules returns the rules of version 2.0 in application order.
func V2Rules() []specdoc.Rule {
	return append([]specdoc.Rule{
		rules.At("/", rules.RequireMembers("swagger", "info", "paths")),
		rules.At("/swagger", rules.Const(V2)),
		rules.At("/schemes/*", rules.Enum("http", "https", "ws", "wss")),
		rules.At("/basePath", rules.Prefix("/")),
	}, commonRules()...)
}

// V3Rules returns the rules of version 3.0 in application order.
func V3Rules() []specdoc.Rule {
	return append([]specdoc.Rule{
		rules.At("/", rules.RequireMembers("openapi", "info", "paths")),
		rules.At("/openapi", rules.Prefix(V3)),
		rules.At("/servers", rules.MinItems(1)),
		rules.At("/servers/*", rules.RequireMembers("url")),
	}, commonRules()...)
}
