package rules

import (
	"math/big"

	specdoc "github.com/reoring/specdoc"
)

// Op defines simple comparison operators for If(...).Then(...)
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
	// Exists ignores the wanted value and only checks presence.
	Exists
)

// Conditional composes conditional execution of rules.
type Conditional struct {
	path string
	op   Op
	want string
	all  []Conditional // composite AND
	any  []Conditional // composite OR
}

// If builds a conditional that evaluates the element at a JSON Pointer
// relative to the current element. Strings compare by text, numbers by value.
func If(path string, op Op, want string) Conditional {
	return Conditional{path: normalizePath(path), op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Holds evaluates the condition against el.
func (c Conditional) Holds(el *specdoc.Element) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.Holds(el) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.Holds(el) {
				return true
			}
		}
		return false
	}
	cur := Lookup(el, c.path)
	if c.op == Exists {
		return cur != nil
	}
	if cur == nil {
		return false
	}
	return compare(cur, c.op, c.want)
}

// Predicate adapts the condition for When.
func (c Conditional) Predicate() Predicate {
	return func(_ specdoc.RuleContext, el *specdoc.Element) bool { return c.Holds(el) }
}

// Then runs rules in order (as And) when the condition holds.
func (c Conditional) Then(name string, rules ...specdoc.Rule) specdoc.Rule {
	return When(c.Predicate(), And(name, rules...))
}

// Lookup navigates el by a relative JSON Pointer; "/" is el itself.
func Lookup(el *specdoc.Element, pointer string) *specdoc.Element {
	cur := el
	for _, seg := range specdoc.SplitPointer(pointer) {
		if cur == nil {
			return nil
		}
		switch cur.Kind {
		case specdoc.KindObject:
			cur = cur.Member(seg)
		case specdoc.KindArray:
			idx, ok := tryParseInt(seg)
			if !ok || idx < 0 || idx >= len(cur.Children) {
				return nil
			}
			cur = cur.Children[idx]
		default:
			return nil
		}
	}
	return cur
}

func compare(cur *specdoc.Element, op Op, want string) bool {
	switch op {
	case Eq:
		return scalarText(cur) == want || numericCmp(cur, want) == 0
	case Ne:
		return !compare(cur, Eq, want)
	case Lt, Le, Gt, Ge:
		c := numericCmp(cur, want)
		switch {
		case c == 2:
			return false
		case op == Lt:
			return c < 0
		case op == Le:
			return c <= 0
		case op == Gt:
			return c > 0
		default:
			return c >= 0
		}
	default:
		return false
	}
}

// numericCmp compares a number element with want; 2 means not comparable.
func numericCmp(cur *specdoc.Element, want string) int {
	if cur.Kind != specdoc.KindNumber {
		return 2
	}
	a, ok1 := new(big.Rat).SetString(cur.Text())
	b, ok2 := new(big.Rat).SetString(want)
	if !ok1 || !ok2 {
		return 2
	}
	return a.Cmp(b)
}

func scalarText(el *specdoc.Element) string {
	switch el.Kind {
	case specdoc.KindString, specdoc.KindNumber:
		return el.Text()
	case specdoc.KindBool:
		if el.Bool() {
			return "true"
		}
		return "false"
	case specdoc.KindNull:
		return "null"
	default:
		return el.String()
	}
}

func tryParseInt(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
