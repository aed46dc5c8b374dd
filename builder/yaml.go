package builder

import (
	"bytes"
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	specdoc "github.com/reoring/specdoc"
)

// YAMLOption configures the YAML builder.
type YAMLOption func(*yamlBuilder)

// WithYAMLIndent sets the number of spaces per nesting level (default 2).
func WithYAMLIndent(n int) YAMLOption {
	return func(b *yamlBuilder) { b.indent = n }
}

// YAML returns a Builder writing a single YAML document. Member order and
// number text are preserved.
func YAML(opts ...YAMLOption) specdoc.Builder {
	b := &yamlBuilder{indent: 2}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type yamlBuilder struct {
	indent int
}

func (b *yamlBuilder) Build(ctx context.Context, root *specdoc.Element, rs *specdoc.RuleSet) ([]byte, error) {
	tree, err := prepare(ctx, root, rs)
	if err != nil {
		return nil, err
	}
	n, err := toNode(tree)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(b.indent)
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toNode(el *specdoc.Element) (*yaml.Node, error) {
	switch el.Kind {
	case specdoc.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case specdoc.KindBool:
		v := "false"
		if el.Bool() {
			v = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v}, nil
	case specdoc.KindNumber:
		// Untagged so the literal text is written as-is.
		return &yaml.Node{Kind: yaml.ScalarNode, Value: el.Text()}, nil
	case specdoc.KindString:
		// The explicit tag makes the encoder quote strings that would
		// otherwise resolve to another type ("true", "1", "null").
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: el.Text()}, nil
	case specdoc.KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, c := range el.Children {
			cn, err := toNode(c)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, cn)
		}
		return n, nil
	case specdoc.KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, c := range el.Children {
			cn, err := toNode(c)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Key}, cn)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("builder: cannot encode %s element at %s", el.Kind, el.Path)
	}
}
