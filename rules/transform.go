package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	specdoc "github.com/reoring/specdoc"
)

// Default adds member key with a copy of value to objects that lack it.
func Default(key string, value *specdoc.Element) specdoc.Rule {
	return &rule{
		name:  "default(" + key + ")",
		kinds: []specdoc.Kind{specdoc.KindObject},
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			if el.Member(key) != nil {
				return el, nil
			}
			// A new element makes the engine recompute paths below it.
			out := *el
			out.Children = append(slices.Clone(el.Children), specdoc.Field(key, value.Clone()))
			return &out, nil
		},
	}
}

// LowercaseKeys rewrites member names to lower case. Two names that collide
// after the rewrite are rejected. Case information is lost, so the rule is
// lossy.
func LowercaseKeys() specdoc.Rule {
	return &rule{
		name:  "lowercaseKeys",
		kinds: []specdoc.Kind{specdoc.KindObject},
		lossy: true,
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			lower := cases.Lower(language.Und)
			changed := false
			seen := make(map[string]string, len(el.Children))
			names := make([]string, len(el.Children))
			for i, c := range el.Children {
				k := lower.String(c.Key)
				if prev, dup := seen[k]; dup {
					return el, rc.Path.Field(c.Key).Violation(
						fmt.Sprintf("member %q collides with %q", c.Key, prev), "key", k)
				}
				seen[k] = c.Key
				names[i] = k
				changed = changed || k != c.Key
			}
			if !changed {
				return el, nil
			}
			out := *el
			out.Children = make([]*specdoc.Element, len(el.Children))
			for i, c := range el.Children {
				out.Children[i] = specdoc.Field(names[i], c)
			}
			return &out, nil
		},
	}
}

// TrimSpace removes leading and trailing white space from strings. It is
// lossy.
func TrimSpace() specdoc.Rule {
	return &rule{
		name:  "trimSpace",
		kinds: []specdoc.Kind{specdoc.KindString},
		lossy: true,
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			t := strings.TrimSpace(el.Text())
			if t == el.Text() {
				return el, nil
			}
			return specdoc.NewString(t), nil
		},
	}
}

// StripMembers removes object members whose names match any of the doublestar
// patterns (for example "x-*"). It is lossy.
func StripMembers(patterns ...string) specdoc.Rule {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			panic(fmt.Sprintf("rules: invalid member pattern %q", p))
		}
	}
	ps := slices.Clone(patterns)
	return &rule{
		name:  "strip(" + strings.Join(ps, ",") + ")",
		kinds: []specdoc.Kind{specdoc.KindObject},
		lossy: true,
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			for _, c := range slices.Clone(el.Children) {
				if matchAny(ps, c.Key) {
					el.DeleteMember(c.Key)
				}
			}
			return el, nil
		},
	}
}

// Remove drops every element it is applied to. Combine it with At or When.
func Remove() specdoc.Rule {
	return &rule{
		name:  "remove",
		lossy: true,
		fn: func(specdoc.RuleContext, *specdoc.Element) (*specdoc.Element, error) {
			return nil, nil
		},
	}
}

func matchAny(patterns []string, s string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, s); err == nil && ok {
			return true
		}
	}
	return false
}
