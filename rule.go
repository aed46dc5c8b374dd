package specdoc

import (
	"context"
	"slices"
)

// Direction tells a rule whether it runs while parsing or while building.
type Direction int

const (
	DirectionParse Direction = iota
	DirectionBuild
)

func (d Direction) String() string {
	if d == DirectionBuild {
		return "build"
	}
	return "parse"
}

// RuleContext is passed to every rule application.
type RuleContext struct {
	Context   context.Context
	Spec      string
	Version   string
	Direction Direction
	// Path addresses the element the rule is applied to.
	Path PathRef
}

// Rule is a single deterministic transformation or validation unit applied to
// one element. Apply returns:
//
//   - the element itself when nothing changes,
//   - a different element to replace it (key and path are carried over),
//   - nil to remove the element from its parent,
//   - an error (ideally a *RuleViolation) to reject it.
//
// Rules must not depend on mutable global state.
type Rule interface {
	Name() string
	// Kinds lists the element kinds the rule applies to. Empty or KindAny
	// matches all kinds.
	Kinds() []Kind
	Apply(rc RuleContext, el *Element) (*Element, error)
}

// LossyRule is implemented by rules that discard information, making
// parse-then-build round trips non-equivalent.
type LossyRule interface {
	Rule
	Lossy() bool
}

// RuleFunc is the function form of Rule.Apply.
type RuleFunc func(rc RuleContext, el *Element) (*Element, error)

type funcRule struct {
	name  string
	kinds []Kind
	fn    RuleFunc
	lossy bool
}

// NewRule adapts fn into a Rule applying to the given kinds.
//
// The rule runs in both directions: once while parsing and again on the copy
// the builder encodes. A transform that is not idempotent (appending a
// suffix, incrementing a counter) therefore shows up twice in the output;
// wrap it with rules.OnParse or rules.OnBuild to run it once.
func NewRule(name string, fn RuleFunc, kinds ...Kind) Rule {
	return &funcRule{name: name, kinds: kinds, fn: fn}
}

// NewLossyRule is NewRule for rules that discard information.
func NewLossyRule(name string, fn RuleFunc, kinds ...Kind) Rule {
	return &funcRule{name: name, kinds: kinds, fn: fn, lossy: true}
}

func (r *funcRule) Name() string  { return r.name }
func (r *funcRule) Kinds() []Kind { return r.kinds }
func (r *funcRule) Lossy() bool   { return r.lossy }
func (r *funcRule) Apply(rc RuleContext, el *Element) (*Element, error) {
	return r.fn(rc, el)
}

// Matches reports whether r applies to elements of kind k.
func Matches(r Rule, k Kind) bool {
	ks := r.Kinds()
	if len(ks) == 0 {
		return true
	}
	return slices.Contains(ks, KindAny) || slices.Contains(ks, k)
}

// IsLossy reports whether r declares itself lossy.
func IsLossy(r Rule) bool {
	lr, ok := r.(LossyRule)
	return ok && lr.Lossy()
}
