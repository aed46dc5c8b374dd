package builder

import (
	"bytes"
	"context"
	"fmt"

	j "github.com/goccy/go-json"

	specdoc "github.com/reoring/specdoc"
)

// JSONOption configures the JSON builder.
type JSONOption func(*jsonBuilder)

// WithIndent pretty-prints the output using indent for each nesting level.
func WithIndent(indent string) JSONOption {
	return func(b *jsonBuilder) { b.indent = indent }
}

// WithTrailingNewline appends "\n" to the output.
func WithTrailingNewline() JSONOption {
	return func(b *jsonBuilder) { b.newline = true }
}

// JSON returns a Builder writing JSON. Object members keep their order and
// numbers keep their literal text.
func JSON(opts ...JSONOption) specdoc.Builder {
	b := &jsonBuilder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type jsonBuilder struct {
	indent  string
	newline bool
}

func (b *jsonBuilder) Build(ctx context.Context, root *specdoc.Element, rs *specdoc.RuleSet) ([]byte, error) {
	tree, err := prepare(ctx, root, rs)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, tree); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if b.indent != "" {
		var pretty bytes.Buffer
		if err := j.Indent(&pretty, out, "", b.indent); err != nil {
			return nil, err
		}
		out = pretty.Bytes()
	}
	if b.newline {
		out = append(out, '\n')
	}
	return out, nil
}

// MarshalJSON encodes a tree as compact JSON without applying any rules.
func MarshalJSON(el *specdoc.Element) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, el); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, el *specdoc.Element) error {
	if el == nil {
		buf.WriteString("null")
		return nil
	}
	switch el.Kind {
	case specdoc.KindNull:
		buf.WriteString("null")
	case specdoc.KindBool:
		if el.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case specdoc.KindNumber:
		text := el.Text()
		if !j.Valid([]byte(text)) || !isNumberText(text) {
			return fmt.Errorf("builder: invalid number %q at %s", text, el.Path)
		}
		buf.WriteString(text)
	case specdoc.KindString:
		return writeString(buf, el.Text())
	case specdoc.KindArray:
		buf.WriteByte('[')
		for i, c := range el.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case specdoc.KindObject:
		buf.WriteByte('{')
		for i, c := range el.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, c.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("builder: cannot encode %s element at %s", el.Kind, el.Path)
	}
	return nil
}

// writeString escapes s as a JSON string. HTML characters stay literal so
// text round-trips as written.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := j.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

func isNumberText(s string) bool {
	return s != "" && (s[0] == '-' || (s[0] >= '0' && s[0] <= '9'))
}
