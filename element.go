package specdoc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Kind enumerates document element kinds.
type Kind int

const (
	// KindAny matches every kind in rule filters; elements never carry it.
	KindAny Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// IsContainer reports whether elements of this kind carry children.
func (k Kind) IsContainer() bool { return k == KindArray || k == KindObject }

// Pos locates an element in its input. Offset is -1 and Line/Column are 0 when
// the reader could not tell.
type Pos struct {
	Offset int64
	Line   int
	Column int
}

func (p Pos) String() string {
	switch {
	case p.Line > 0:
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	case p.Offset >= 0:
		return "offset " + strconv.FormatInt(p.Offset, 10)
	default:
		return "-"
	}
}

// NoPos is the position of synthesized elements.
var NoPos = Pos{Offset: -1}

// Element is one node of the document tree produced by a Parser and consumed
// by a Builder. A tree is owned by a single pipeline invocation.
//
// Value holds a bool for KindBool, a string for KindString, and the literal
// number text for KindNumber. Object members keep their input order and carry
// their member name in Key.
type Element struct {
	Kind     Kind
	Key      string
	Value    any
	Children []*Element
	Path     string
	Pos      Pos
}

// NewNull returns a null element.
func NewNull() *Element { return &Element{Kind: KindNull, Pos: NoPos} }

// NewBool returns a bool element.
func NewBool(b bool) *Element { return &Element{Kind: KindBool, Value: b, Pos: NoPos} }

// NewString returns a string element.
func NewString(s string) *Element { return &Element{Kind: KindString, Value: s, Pos: NoPos} }

// NewNumber returns a number element from its literal text.
func NewNumber(text string) *Element { return &Element{Kind: KindNumber, Value: text, Pos: NoPos} }

// NewInt returns a number element holding n.
func NewInt(n int64) *Element { return NewNumber(strconv.FormatInt(n, 10)) }

// NewArray returns an array element with the given items.
func NewArray(items ...*Element) *Element {
	return &Element{Kind: KindArray, Children: items, Pos: NoPos}
}

// NewObject returns an object element; members should be built with Field.
func NewObject(members ...*Element) *Element {
	return &Element{Kind: KindObject, Children: members, Pos: NoPos}
}

// Field sets the member name of el and returns it.
func Field(key string, el *Element) *Element {
	el.Key = key
	return el
}

// Len returns the number of children.
func (e *Element) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Children)
}

// Text returns the string payload of string and number elements.
func (e *Element) Text() string {
	if e == nil {
		return ""
	}
	s, _ := e.Value.(string)
	return s
}

// Bool returns the payload of a bool element.
func (e *Element) Bool() bool {
	if e == nil {
		return false
	}
	b, _ := e.Value.(bool)
	return b
}

// Member returns the first member named key, or nil.
func (e *Element) Member(key string) *Element {
	if e == nil || e.Kind != KindObject {
		return nil
	}
	for _, c := range e.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// SetMember replaces the member named key or appends it.
func (e *Element) SetMember(key string, v *Element) {
	v.Key = key
	v.Path = childPath(e.Path, key)
	for i, c := range e.Children {
		if c.Key == key {
			e.Children[i] = v
			return
		}
	}
	e.Children = append(e.Children, v)
}

// DeleteMember removes every member named key and reports whether one existed.
func (e *Element) DeleteMember(key string) bool {
	kept := e.Children[:0]
	found := false
	for _, c := range e.Children {
		if c.Key == key {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(e.Children); i++ {
		e.Children[i] = nil
	}
	e.Children = kept
	return found
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := *e
	if e.Children != nil {
		c.Children = make([]*Element, len(e.Children))
		for i, ch := range e.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return &c
}

// Interface converts the element into generic Go values: map[string]any,
// []any, string, bool, json.Number, or nil.
func (e *Element) Interface() any {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case KindBool:
		return e.Bool()
	case KindString:
		return e.Text()
	case KindNumber:
		return json.Number(e.Text())
	case KindArray:
		out := make([]any, len(e.Children))
		for i, c := range e.Children {
			out[i] = c.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(e.Children))
		for _, c := range e.Children {
			out[c.Key] = c.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports semantic equality: member order is ignored and numbers compare
// by value. Keys, paths and positions of the receivers themselves are ignored.
func (e *Element) Equal(o *Element) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.Kind != o.Kind {
		return false
	}
	switch e.Kind {
	case KindNull:
		return true
	case KindBool:
		return e.Bool() == o.Bool()
	case KindString:
		return e.Text() == o.Text()
	case KindNumber:
		return numbersEqual(e.Text(), o.Text())
	case KindArray:
		if len(e.Children) != len(o.Children) {
			return false
		}
		for i := range e.Children {
			if !e.Children[i].Equal(o.Children[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(e.Children) != len(o.Children) {
			return false
		}
		for _, c := range e.Children {
			if !c.Equal(o.Member(c.Key)) {
				return false
			}
		}
		return true
	}
	return false
}

func numbersEqual(a, b string) bool {
	if a == b {
		return true
	}
	ra, ok1 := new(big.Rat).SetString(a)
	rb, ok2 := new(big.Rat).SetString(b)
	if !ok1 || !ok2 {
		return false
	}
	return ra.Cmp(rb) == 0
}

// Walk visits the tree in pre-order; returning false skips the children.
func (e *Element) Walk(fn func(*Element) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// String renders a compact debug form.
func (e *Element) String() string {
	b := &strings.Builder{}
	writeDebug(b, e)
	return b.String()
}

func writeDebug(b *strings.Builder, e *Element) {
	if e == nil {
		b.WriteString("<nil>")
		return
	}
	switch e.Kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(e.Bool()))
	case KindNumber:
		b.WriteString(e.Text())
	case KindString:
		b.WriteString(strconv.Quote(e.Text()))
	case KindArray:
		b.WriteByte('[')
		for i, c := range e.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeDebug(b, c)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, c := range e.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(c.Key))
			b.WriteByte(':')
			writeDebug(b, c)
		}
		b.WriteByte('}')
	default:
		b.WriteString(e.Kind.String())
	}
}

// reindex recomputes Path for e and its descendants, anchoring e at path.
func reindex(e *Element, path string) {
	e.Path = path
	for i, c := range e.Children {
		if e.Kind == KindArray {
			c.Key = ""
			reindex(c, childPath(path, strconv.Itoa(i)))
			continue
		}
		reindex(c, childPath(path, c.Key))
	}
}
