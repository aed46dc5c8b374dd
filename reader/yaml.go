package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/token"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// ErrMultiDocument is returned for YAML streams holding more than one document.
var ErrMultiDocument = errors.New("reader: multi-document YAML streams are not supported")

// YAML returns a Reader for single-document YAML. Mapping order is preserved,
// aliases and merge keys are resolved, and duplicate keys are rejected.
func YAML() specdoc.Reader { return yamlReader{} }

type yamlReader struct{}

func (yamlReader) Read(ctx context.Context, data []byte) (*specdoc.Content, error) {
	text, err := Normalize(data)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(text))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return &specdoc.Content{Format: FormatYAML, Text: text, Tokens: token.FromTokens()}, nil
		}
		return nil, err
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, ErrMultiDocument
	}
	w := &yamlWalker{}
	if err := w.walk(&root, 0); err != nil {
		return nil, err
	}
	return &specdoc.Content{Format: FormatYAML, Text: text, Tokens: token.FromTokens(w.out...)}, nil
}

// maxAliasDepth bounds alias expansion (billion laughs style inputs).
const maxAliasDepth = 64

type yamlWalker struct {
	out []token.Token
}

func (w *yamlWalker) emit(n *yaml.Node, t token.Token) {
	t.Offset = -1
	t.Line, t.Column = n.Line, n.Column
	w.out = append(w.out, t)
}

func (w *yamlWalker) walk(n *yaml.Node, aliases int) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return w.walk(n.Content[0], aliases)
	case yaml.AliasNode:
		if aliases >= maxAliasDepth {
			return fmt.Errorf("reader: alias nesting deeper than %d at %d:%d", maxAliasDepth, n.Line, n.Column)
		}
		return w.walk(n.Alias, aliases+1)
	case yaml.MappingNode:
		w.emit(n, token.Token{Kind: token.BeginObject})
		pairs, err := mappingPairs(n)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			w.emit(p.key, token.Token{Kind: token.Key, String: p.key.Value})
			if err := w.walk(p.value, aliases); err != nil {
				return err
			}
		}
		w.emit(n, token.Token{Kind: token.EndObject})
		return nil
	case yaml.SequenceNode:
		w.emit(n, token.Token{Kind: token.BeginArray})
		for _, c := range n.Content {
			if err := w.walk(c, aliases); err != nil {
				return err
			}
		}
		w.emit(n, token.Token{Kind: token.EndArray})
		return nil
	case yaml.ScalarNode:
		t, err := scalarToken(n)
		if err != nil {
			return err
		}
		w.emit(n, t)
		return nil
	default:
		return fmt.Errorf("reader: unsupported YAML node kind %d at %d:%d", n.Kind, n.Line, n.Column)
	}
}

type yamlPair struct{ key, value *yaml.Node }

// mappingPairs flattens merge keys ("<<") and rejects duplicate explicit keys.
// Explicit keys win over merged ones.
func mappingPairs(n *yaml.Node) ([]yamlPair, error) {
	var pairs []yamlPair
	first := make(map[string][2]int, len(n.Content)/2)
	var merged []yamlPair
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			m, err := mergeSources(v)
			if err != nil {
				return nil, err
			}
			merged = append(merged, m...)
			continue
		}
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("reader: non-scalar mapping key at %d:%d", k.Line, k.Column)
		}
		if pos, dup := first[k.Value]; dup {
			return nil, &DuplicateKeyError{Key: k.Value, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
		}
		first[k.Value] = [2]int{k.Line, k.Column}
		pairs = append(pairs, yamlPair{k, v})
	}
	for _, p := range merged {
		if _, ok := first[p.key.Value]; ok {
			continue
		}
		first[p.key.Value] = [2]int{p.key.Line, p.key.Column}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func mergeSources(v *yaml.Node) ([]yamlPair, error) {
	if v.Kind == yaml.AliasNode {
		v = v.Alias
	}
	switch v.Kind {
	case yaml.MappingNode:
		return mappingPairs(v)
	case yaml.SequenceNode:
		var out []yamlPair
		for _, c := range v.Content {
			m, err := mergeSources(c)
			if err != nil {
				return nil, err
			}
			out = append(out, m...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("reader: merge key expects a mapping at %d:%d", v.Line, v.Column)
	}
}

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

func scalarToken(n *yaml.Node) (token.Token, error) {
	switch n.ShortTag() {
	case "!!null":
		return token.Token{Kind: token.Null}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return token.Token{}, err
		}
		return token.Token{Kind: token.Bool, Bool: b}, nil
	case "!!int", "!!float":
		if jsonNumber.MatchString(n.Value) {
			return token.Token{Kind: token.Number, Number: n.Value}, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return token.Token{}, err
		}
		switch x := v.(type) {
		case int:
			return token.Token{Kind: token.Number, Number: strconv.Itoa(x)}, nil
		case int64:
			return token.Token{Kind: token.Number, Number: strconv.FormatInt(x, 10)}, nil
		case uint64:
			return token.Token{Kind: token.Number, Number: strconv.FormatUint(x, 10)}, nil
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return token.Token{}, fmt.Errorf("reader: non-finite number %q at %d:%d", n.Value, n.Line, n.Column)
			}
			return token.Token{Kind: token.Number, Number: strconv.FormatFloat(x, 'g', -1, 64)}, nil
		}
		return token.Token{}, fmt.Errorf("reader: cannot interpret number %q at %d:%d", n.Value, n.Line, n.Column)
	default:
		// !!str, !!timestamp, !!binary and custom tags keep their text.
		return token.Token{Kind: token.String, String: n.Value}, nil
	}
}
