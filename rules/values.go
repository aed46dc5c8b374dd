package rules

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	specdoc "github.com/reoring/specdoc"
)

// RequireMembers rejects objects missing any of keys.
func RequireMembers(keys ...string) specdoc.Rule {
	ks := slices.Clone(keys)
	return &rule{
		name:  "require(" + strings.Join(ks, ",") + ")",
		kinds: []specdoc.Kind{specdoc.KindObject},
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			for _, k := range ks {
				if el.Member(k) == nil {
					return el, rc.Path.Violation(fmt.Sprintf("missing required member %q", k), "member", k)
				}
			}
			return el, nil
		},
	}
}

// Enum accepts strings equal to one of values.
func Enum(values ...string) specdoc.Rule {
	vs := slices.Clone(values)
	return &rule{
		name:  "enum",
		kinds: []specdoc.Kind{specdoc.KindString},
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			if !slices.Contains(vs, el.Text()) {
				return el, rc.Path.Violation(fmt.Sprintf("value %q is not one of %s", el.Text(), strings.Join(vs, ", ")),
					"got", el.Text(), "allowed", vs)
			}
			return el, nil
		},
	}
}

// Const accepts only strings equal to want.
func Const(want string) specdoc.Rule {
	return &rule{
		name:  "const",
		kinds: []specdoc.Kind{specdoc.KindString},
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			if el.Text() != want {
				return el, rc.Path.Violation(fmt.Sprintf("expected %q, got %q", want, el.Text()), "want", want, "got", el.Text())
			}
			return el, nil
		},
	}
}

// Prefix accepts strings starting with p.
func Prefix(p string) specdoc.Rule {
	return &rule{
		name:  "prefix",
		kinds: []specdoc.Kind{specdoc.KindString},
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			if !strings.HasPrefix(el.Text(), p) {
				return el, rc.Path.Violation(fmt.Sprintf("value %q must start with %q", el.Text(), p), "prefix", p, "got", el.Text())
			}
			return el, nil
		},
	}
}

// Pattern accepts strings matching the regular expression expr.
func Pattern(expr string) specdoc.Rule {
	re := regexp.MustCompile(expr)
	return &rule{
		name:  "pattern",
		kinds: []specdoc.Kind{specdoc.KindString},
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			if !re.MatchString(el.Text()) {
				return el, rc.Path.Violation(fmt.Sprintf("value %q does not match %s", el.Text(), expr), "pattern", expr)
			}
			return el, nil
		},
	}
}

// KeyPattern accepts objects whose member names all match expr.
func KeyPattern(expr string) specdoc.Rule {
	re := regexp.MustCompile(expr)
	return &rule{
		name:  "keyPattern",
		kinds: []specdoc.Kind{specdoc.KindObject},
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			for _, c := range el.Children {
				if !re.MatchString(c.Key) {
					return el, rc.Path.Field(c.Key).Violation(fmt.Sprintf("member name %q does not match %s", c.Key, expr), "pattern", expr)
				}
			}
			return el, nil
		},
	}
}

// MinItems rejects arrays and objects with fewer than n children.
func MinItems(n int) specdoc.Rule {
	return &rule{
		name:  "minItems(" + strconv.Itoa(n) + ")",
		kinds: []specdoc.Kind{specdoc.KindArray, specdoc.KindObject},
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			if el.Len() < n {
				return el, rc.Path.Violation(fmt.Sprintf("at least %d item(s) required, got %d", n, el.Len()), "minItems", n)
			}
			return el, nil
		},
	}
}

// UniqueBy ensures the objects of an array have unique values at the relative
// pointer keyPath (e.g. "name" or "/id"). Items lacking the key are skipped.
func UniqueBy(keyPath string) specdoc.Rule {
	kp := normalizePath(keyPath)
	return &rule{
		name:  "uniqueBy(" + kp + ")",
		kinds: []specdoc.Kind{specdoc.KindArray},
		fn: func(rc specdoc.RuleContext, el *specdoc.Element) (*specdoc.Element, error) {
			seen := map[string]int{}
			for i, item := range el.Children {
				kv := Lookup(item, kp)
				if kv == nil {
					continue
				}
				key := kv.Kind.String() + ":" + scalarText(kv)
				if j, dup := seen[key]; dup {
					return el, rc.Path.Index(i).Violation("duplicate value", "first", j, "dup", i, "key", scalarText(kv))
				}
				seen[key] = i
			}
			return el, nil
		},
	}
}
