package specdoc

import (
	"fmt"
	"strconv"
	"strings"
)

// PathRef builds JSON Pointer paths in a chain-safe way and creates
// violations anchored at them.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
	Segments() []string
	Violation(reason string, kv ...any) *RuleViolation
}

// Root returns the PathRef of the document root ("/").
func Root() PathRef { return &pathRef{} }

// At parses a JSON Pointer into a PathRef. "" and "/" both denote the root.
func At(pointer string) PathRef {
	return &pathRef{parts: SplitPointer(pointer)}
}

type pathRef struct {
	parts []string // unescaped segments
}

func (p *pathRef) Field(name string) PathRef {
	return &pathRef{parts: append(append([]string{}, p.parts...), name)}
}

func (p *pathRef) Index(i int) PathRef {
	return &pathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

func (p *pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, s := range p.parts {
		b.WriteByte('/')
		b.WriteString(pointerEscaper.Replace(s))
	}
	return b.String()
}

func (p *pathRef) Segments() []string { return append([]string(nil), p.parts...) }

func (p *pathRef) Violation(reason string, kv ...any) *RuleViolation {
	var m map[string]any
	if len(kv) > 1 {
		m = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			m[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return &RuleViolation{Path: p.Pointer(), Reason: reason, Params: m, Pos: NoPos}
}

// escape '~' -> '~0', '/' -> '~1' per RFC6901
var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// SplitPointer returns the unescaped segments of a JSON Pointer.
func SplitPointer(pointer string) []string {
	if pointer == "" || pointer == "/" {
		return nil
	}
	raw := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	out := make([]string, len(raw))
	for i, s := range raw {
		out[i] = pointerUnescaper.Replace(s)
	}
	return out
}

func childPath(base, seg string) string {
	if base == "" || base == "/" {
		return "/" + pointerEscaper.Replace(seg)
	}
	return base + "/" + pointerEscaper.Replace(seg)
}
