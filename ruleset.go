package specdoc

import (
	"context"
	"errors"
	"fmt"
)

// RuleSet is the ordered, immutable bundle of rules representing one version
// of one specification. Later rules see the effects of earlier ones.
type RuleSet struct {
	spec    string
	version string
	rules   []Rule
}

// NewRuleSet builds a RuleSet for spec at version. The rule order is kept.
func NewRuleSet(spec, version string, rules ...Rule) (*RuleSet, error) {
	if spec == "" {
		return nil, registrationError(CodeInvalidRegistration, spec, "ruleset", errors.New("empty specification name"))
	}
	if version == "" {
		return nil, registrationError(CodeInvalidRegistration, spec, "ruleset", errors.New("empty version"))
	}
	for i, r := range rules {
		if r == nil {
			return nil, registrationError(CodeInvalidRegistration, spec, "version "+version, fmt.Errorf("rule %d is nil", i))
		}
	}
	return &RuleSet{spec: spec, version: version, rules: append([]Rule(nil), rules...)}, nil
}

// MustRuleSet is NewRuleSet that panics on error. Intended for setup code.
func MustRuleSet(spec, version string, rules ...Rule) *RuleSet {
	rs, err := NewRuleSet(spec, version, rules...)
	if err != nil {
		panic(err)
	}
	return rs
}

// Spec returns the owning specification name.
func (rs *RuleSet) Spec() string { return rs.spec }

// Version returns the version the rule set represents.
func (rs *RuleSet) Version() string { return rs.version }

// Len returns the number of rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// Rules returns a copy of the ordered rules.
func (rs *RuleSet) Rules() []Rule { return append([]Rule(nil), rs.rules...) }

// Lossless reports whether no rule in the set discards information.
func (rs *RuleSet) Lossless() bool {
	for _, r := range rs.rules {
		if IsLossy(r) {
			return false
		}
	}
	return true
}

// Context returns the RuleContext for applying the set to el.
func (rs *RuleSet) Context(ctx context.Context, dir Direction, el *Element) RuleContext {
	return RuleContext{Context: ctx, Spec: rs.spec, Version: rs.version, Direction: dir, Path: At(el.Path)}
}

// Apply runs every matching rule on el in order. The first failing rule stops
// processing of el; the returned element is then the last good state. A nil
// element with a nil error means a rule removed el.
func (rs *RuleSet) Apply(rc RuleContext, el *Element) (*Element, error) {
	cur := el
	for _, r := range rs.rules {
		if !Matches(r, cur.Kind) {
			continue
		}
		out, err := applyRule(r, rc, cur)
		if err != nil {
			return cur, rs.violation(r, rc, cur, err)
		}
		if out == nil {
			return nil, nil
		}
		if out != cur {
			out.Key = cur.Key
			if out.Pos == NoPos || out.Pos == (Pos{}) {
				out.Pos = cur.Pos
			}
			reindex(out, cur.Path)
			cur = out
		}
	}
	return cur, nil
}

// Walk applies the set post-order over an existing tree, mutating it in place.
// Callers that need the original should pass a Clone. It stops at the first
// violation.
func (rs *RuleSet) Walk(ctx context.Context, root *Element, dir Direction) (*Element, error) {
	if root == nil {
		return nil, nil
	}
	reindex(root, "/")
	out, err := rs.walk(ctx, root, dir)
	if err != nil {
		return root, err
	}
	if out == nil {
		return root, rootRemoved(rs, root, dir)
	}
	return out, nil
}

func (rs *RuleSet) walk(ctx context.Context, el *Element, dir Direction) (*Element, error) {
	if err := ctx.Err(); err != nil {
		return el, err
	}
	if el.Kind.IsContainer() {
		kept := make([]*Element, 0, len(el.Children))
		for _, c := range el.Children {
			nc, err := rs.walk(ctx, c, dir)
			if err != nil {
				return el, err
			}
			if nc != nil {
				kept = append(kept, nc)
			}
		}
		removed := len(kept) != len(el.Children)
		el.Children = kept
		if removed {
			reindex(el, el.Path)
		}
	}
	return rs.Apply(rs.Context(ctx, dir, el), el)
}

// applyRule calls r, converting a panic into an error so one faulty rule
// cannot take down the process.
func applyRule(r Rule, rc RuleContext, el *Element) (out *Element, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rule panicked: %v", p)
		}
	}()
	return r.Apply(rc, el)
}

func (rs *RuleSet) violation(r Rule, rc RuleContext, el *Element, err error) *RuleViolation {
	var v *RuleViolation
	if errors.As(err, &v) {
		cp := *v
		v = &cp
	} else {
		v = &RuleViolation{Reason: err.Error(), Cause: err, Pos: NoPos}
	}
	v.Spec = rs.spec
	v.Version = rs.version
	v.Direction = rc.Direction
	if v.Rule == "" {
		v.Rule = r.Name()
	}
	if v.Path == "" {
		v.Path = el.Path
	}
	if v.Path == "" {
		v.Path = "/"
	}
	if v.Pos == NoPos || v.Pos == (Pos{}) {
		v.Pos = el.Pos
	}
	return v
}

func rootRemoved(rs *RuleSet, root *Element, dir Direction) *RuleViolation {
	return &RuleViolation{
		Spec:      rs.spec,
		Version:   rs.version,
		Path:      "/",
		Pos:       root.Pos,
		Direction: dir,
		Reason:    "rule removed the document root",
	}
}
