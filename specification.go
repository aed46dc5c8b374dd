package specdoc

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/cases"
)

// Specification binds a name to its supported versions (one RuleSet each),
// an optional default version, an extension->Reader map, and a fixed
// Parser/Builder pair.
//
// Registration happens during setup. Every registration publishes a fresh
// immutable table (copy-on-write), so lookups never lock and never observe a
// half-applied change.
type Specification struct {
	name  string
	mu    sync.Mutex // serializes writers
	table atomic.Pointer[specTable]
}

type specTable struct {
	versions       []string // registration order
	rulesets       map[string]*RuleSet
	defaultVersion string
	extensions     []string // registration order, normalized
	readers        map[string]Reader
	parser         Parser
	builder        Builder
}

func (t *specTable) clone() *specTable {
	return &specTable{
		versions:       slices.Clone(t.versions),
		rulesets:       maps.Clone(t.rulesets),
		defaultVersion: t.defaultVersion,
		extensions:     slices.Clone(t.extensions),
		readers:        maps.Clone(t.readers),
		parser:         t.parser,
		builder:        t.builder,
	}
}

// SpecOption configures a Specification at construction.
type SpecOption func(*Specification) error

// WithParser sets the specification's Parser.
func WithParser(p Parser) SpecOption { return func(s *Specification) error { return s.SetParser(p) } }

// WithBuilder sets the specification's Builder.
func WithBuilder(b Builder) SpecOption { return func(s *Specification) error { return s.SetBuilder(b) } }

// WithReader registers r for extension ext.
func WithReader(ext string, r Reader) SpecOption {
	return func(s *Specification) error { return s.RegisterReader(ext, r) }
}

// WithRuleSet registers rs as one supported version.
func WithRuleSet(rs *RuleSet) SpecOption {
	return func(s *Specification) error { return s.RegisterRuleSet(rs) }
}

// WithDefaultVersion designates the default version. Options apply in order,
// so the RuleSet for v must be registered by an earlier option.
func WithDefaultVersion(v string) SpecOption {
	return func(s *Specification) error { return s.SetDefaultVersion(v) }
}

// NewSpecification constructs a Specification and applies opts in order.
func NewSpecification(name string, opts ...SpecOption) (*Specification, error) {
	if strings.TrimSpace(name) == "" {
		return nil, registrationError(CodeInvalidRegistration, name, "name", errors.New("empty specification name"))
	}
	s := &Specification{name: name}
	s.table.Store(&specTable{rulesets: map[string]*RuleSet{}, readers: map[string]Reader{}})
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Name returns the stable, non-empty identifier.
func (s *Specification) Name() string { return s.name }

// Versions returns the supported versions in registration order.
func (s *Specification) Versions() []string { return slices.Clone(s.table.Load().versions) }

// SupportedExtensions returns the normalized extensions in registration order.
func (s *Specification) SupportedExtensions() []string {
	return slices.Clone(s.table.Load().extensions)
}

// GetVersion returns the RuleSet for version or fails with
// ErrUnsupportedVersion.
func (s *Specification) GetVersion(version string) (*RuleSet, error) {
	rs, ok := s.table.Load().rulesets[version]
	if !ok {
		return nil, &Error{Code: CodeUnsupportedVersion, Stage: StageResolve, Spec: s.name, Version: version}
	}
	return rs, nil
}

// DefaultVersion returns the RuleSet of the configured default version, or
// fails with ErrNoDefaultVersion. It never falls back to any registered
// version.
func (s *Specification) DefaultVersion() (*RuleSet, error) {
	t := s.table.Load()
	if t.defaultVersion == "" {
		return nil, &Error{Code: CodeNoDefaultVersion, Stage: StageResolve, Spec: s.name}
	}
	return t.rulesets[t.defaultVersion], nil
}

// DefaultVersionName returns the configured default version, "" when unset.
func (s *Specification) DefaultVersionName() string { return s.table.Load().defaultVersion }

// GetReader returns the Reader registered for ext. Lookup is exact after
// normalization (leading "." stripped, case folded); there is no sniffing.
func (s *Specification) GetReader(ext string) (Reader, error) {
	norm := NormalizeExtension(ext)
	r, ok := s.table.Load().readers[norm]
	if !ok {
		return nil, &Error{Code: CodeUnsupportedExtension, Stage: StageResolve, Spec: s.name, Extension: ext}
	}
	return r, nil
}

// Parser returns the specification's Parser (nil until set).
func (s *Specification) Parser() Parser { return s.table.Load().parser }

// Builder returns the specification's Builder (nil until set).
func (s *Specification) Builder() Builder { return s.table.Load().builder }

// RegisterRuleSet adds rs as a supported version. The RuleSet must belong to
// this specification and its version must not be registered yet.
func (s *Specification) RegisterRuleSet(rs *RuleSet) error {
	if rs == nil {
		return registrationError(CodeInvalidRegistration, s.name, "ruleset", errors.New("nil ruleset"))
	}
	if rs.Spec() != s.name {
		return registrationError(CodeInvalidRegistration, s.name, "version "+rs.Version(),
			errors.New("ruleset belongs to specification "+rs.Spec()))
	}
	return s.update(func(t *specTable) error {
		if _, dup := t.rulesets[rs.Version()]; dup {
			return registrationError(CodeDuplicateRegistration, s.name, "version "+rs.Version(), nil)
		}
		t.versions = append(t.versions, rs.Version())
		t.rulesets[rs.Version()] = rs
		return nil
	})
}

// RegisterReader registers r for ext.
func (s *Specification) RegisterReader(ext string, r Reader) error {
	norm := NormalizeExtension(ext)
	if norm == "" {
		return registrationError(CodeInvalidRegistration, s.name, "extension", errors.New("empty extension"))
	}
	if r == nil {
		return registrationError(CodeInvalidRegistration, s.name, "extension "+norm, errors.New("nil reader"))
	}
	return s.update(func(t *specTable) error {
		if _, dup := t.readers[norm]; dup {
			return registrationError(CodeDuplicateRegistration, s.name, "extension "+norm, nil)
		}
		t.extensions = append(t.extensions, norm)
		t.readers[norm] = r
		return nil
	})
}

// SetParser sets the Parser; it can be set once.
func (s *Specification) SetParser(p Parser) error {
	if p == nil {
		return registrationError(CodeInvalidRegistration, s.name, "parser", errors.New("nil parser"))
	}
	return s.update(func(t *specTable) error {
		if t.parser != nil {
			return registrationError(CodeDuplicateRegistration, s.name, "parser", nil)
		}
		t.parser = p
		return nil
	})
}

// SetBuilder sets the Builder; it can be set once.
func (s *Specification) SetBuilder(b Builder) error {
	if b == nil {
		return registrationError(CodeInvalidRegistration, s.name, "builder", errors.New("nil builder"))
	}
	return s.update(func(t *specTable) error {
		if t.builder != nil {
			return registrationError(CodeDuplicateRegistration, s.name, "builder", nil)
		}
		t.builder = b
		return nil
	})
}

// SetDefaultVersion designates an already registered version as default.
func (s *Specification) SetDefaultVersion(version string) error {
	return s.update(func(t *specTable) error {
		if _, ok := t.rulesets[version]; !ok {
			return &Error{Code: CodeUnsupportedVersion, Stage: StageRegister, Spec: s.name, Version: version}
		}
		t.defaultVersion = version
		return nil
	})
}

// Validate checks that the specification can serve requests: it needs a
// Parser, a Builder, at least one version and at least one Reader.
func (s *Specification) Validate() error {
	t := s.table.Load()
	var errs []error
	if t.parser == nil {
		errs = append(errs, errors.New("no parser"))
	}
	if t.builder == nil {
		errs = append(errs, errors.New("no builder"))
	}
	if len(t.versions) == 0 {
		errs = append(errs, errors.New("no versions"))
	}
	if len(t.readers) == 0 {
		errs = append(errs, errors.New("no readers"))
	}
	if len(errs) > 0 {
		return registrationError(CodeInvalidRegistration, s.name, "specification", errors.Join(errs...))
	}
	return nil
}

// update applies fn to a copy of the current table and publishes it. The
// current table stays untouched when fn fails.
func (s *Specification) update(fn func(*specTable) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.table.Load().clone()
	if err := fn(next); err != nil {
		return err
	}
	s.table.Store(next)
	return nil
}

// NormalizeExtension strips surrounding spaces and one leading ".", then case
// folds the rest, so "YAML", ".yaml" and "yaml" are the same key.
func NormalizeExtension(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	return cases.Fold().String(ext)
}
