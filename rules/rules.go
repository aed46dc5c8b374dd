// Package rules provides reusable specdoc rules and combinators.
//
// Constructors that take patterns (At, Pattern, KeyPattern, StripMembers)
// panic on invalid input, like regexp.MustCompile; they are meant for setup
// code that builds RuleSets once.
package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	specdoc "github.com/reoring/specdoc"
)

// rule is the common implementation behind every constructor in this package.
type rule struct {
	name  string
	kinds []specdoc.Kind
	lossy bool
	fn    specdoc.RuleFunc
}

func (r *rule) Name() string          { return r.name }
func (r *rule) Kinds() []specdoc.Kind { return r.kinds }
func (r *rule) Lossy() bool           { return r.lossy }
func (r *rule) Apply(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
	return r.fn(rc, el)
}

// apply runs r on el when r accepts el's kind.
func apply(r specdoc.Rule, rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
	if !specdoc.Matches(r, el.Kind) {
		return el, nil
	}
	return r.Apply(rc, el)
}

func anyLossy(rs []specdoc.Rule) bool {
	return slices.ContainsFunc(rs, specdoc.IsLossy)
}

// unionKinds returns nil (all kinds) when any rule applies to all kinds.
func unionKinds(rs []specdoc.Rule) []specdoc.Kind {
	var out []specdoc.Kind
	for _, r := range rs {
		ks := r.Kinds()
		if len(ks) == 0 || slices.Contains(ks, specdoc.KindAny) {
			return nil
		}
		for _, k := range ks {
			if !slices.Contains(out, k) {
				out = append(out, k)
			}
		}
	}
	return out
}

// ---------- Path scoping ----------

// At restricts r to elements whose JSON Pointer matches pattern. Patterns use
// doublestar syntax over pointer segments: "/paths/*" matches every member of
// /paths, "/**" matches every element, and "/" matches only the root.
func At(pattern string, r specdoc.Rule) specdoc.Rule {
	pat := strings.TrimPrefix(pattern, "/")
	if pat != "" && !doublestar.ValidatePattern(pat) {
		panic(fmt.Sprintf("rules: invalid path pattern %q", pattern))
	}
	return &rule{
		name:  r.Name() + "@" + normalizePath(pattern),
		kinds: r.Kinds(),
		lossy: specdoc.IsLossy(r),
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			if !PathMatch(pat, el.Path) {
				return el, nil
			}
			return r.Apply(rc, el)
		},
	}
}

// PathMatch reports whether pointer matches a doublestar pattern given
// without its leading "/".
func PathMatch(pattern, pointer string) bool {
	p := strings.TrimPrefix(pointer, "/")
	if pattern == "" {
		return p == ""
	}
	ok, err := doublestar.Match(pattern, p)
	return err == nil && ok
}

// ---------- Combinators ----------

// And applies rules in order; each sees the output of the previous one. It
// stops at the first error or removal.
func And(name string, rules ...specdoc.Rule) specdoc.Rule {
	rs := slices.Clone(rules)
	return &rule{
		name:  name,
		kinds: unionKinds(rs),
		lossy: anyLossy(rs),
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			cur := el
			for _, r := range rs {
				out, err := apply(r, rc, cur)
				if err != nil || out == nil {
					return out, err
				}
				cur = out
			}
			return cur, nil
		},
	}
}

// Or returns the result of the first rule that accepts el. When all of them
// reject it, the first rejection is returned.
func Or(name string, rules ...specdoc.Rule) specdoc.Rule {
	rs := slices.Clone(rules)
	return &rule{
		name:  name,
		kinds: unionKinds(rs),
		lossy: anyLossy(rs),
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			var first error
			for _, r := range rs {
				if !specdoc.Matches(r, el.Kind) {
					continue
				}
				out, err := r.Apply(rc, el)
				if err == nil {
					return out, nil
				}
				if first == nil {
					first = err
				}
			}
			if first != nil {
				return el, first
			}
			return el, nil
		},
	}
}

// OnParse limits r to the parse direction.
func OnParse(r specdoc.Rule) specdoc.Rule { return onDirection(specdoc.DirectionParse, r) }

// OnBuild limits r to the build direction.
func OnBuild(r specdoc.Rule) specdoc.Rule { return onDirection(specdoc.DirectionBuild, r) }

func onDirection(d specdoc.Direction, r specdoc.Rule) specdoc.Rule {
	return &rule{
		name:  r.Name(),
		kinds: r.Kinds(),
		lossy: specdoc.IsLossy(r),
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			if rc.Direction != d {
				return el, nil
			}
			return r.Apply(rc, el)
		},
	}
}

// Predicate decides whether a conditional rule runs.
type Predicate func(rc specdoc.RuleContext, el *specdoc.Element) bool

// When runs r only if pred holds for el.
func When(pred Predicate, r specdoc.Rule) specdoc.Rule {
	return &rule{
		name:  r.Name(),
		kinds: r.Kinds(),
		lossy: specdoc.IsLossy(r),
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			if !pred(rc, el) {
				return el, nil
			}
			return r.Apply(rc, el)
		},
	}
}

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}
