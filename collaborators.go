package specdoc

import (
	"context"

	"github.com/reoring/specdoc/token"
)

// Content is the normalized form of raw input produced by a Reader.
type Content struct {
	// Extension is the normalized extension the reader was selected for.
	Extension string
	// Format names the reader's format (for example "json" or "yaml").
	Format string
	// Text is the input re-encoded as UTF-8 without a byte order mark.
	Text []byte
	// Tokens streams the structured content. It is consumed once.
	Tokens token.Source
}

// Reader converts raw bytes into normalized content.
type Reader interface {
	Read(ctx context.Context, data []byte) (*Content, error)
}

// Parser converts normalized content into an element tree, applying the
// RuleSet to each element as it is produced.
type Parser interface {
	Parse(ctx context.Context, c *Content, rs *RuleSet) (*Element, error)
}

// Builder serializes an element tree, applying the RuleSet in build direction.
type Builder interface {
	Build(ctx context.Context, root *Element, rs *RuleSet) ([]byte, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, data []byte) (*Content, error)

func (f ReaderFunc) Read(ctx context.Context, data []byte) (*Content, error) { return f(ctx, data) }

// ParserFunc adapts a function to Parser.
type ParserFunc func(ctx context.Context, c *Content, rs *RuleSet) (*Element, error)

func (f ParserFunc) Parse(ctx context.Context, c *Content, rs *RuleSet) (*Element, error) {
	return f(ctx, c, rs)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, root *Element, rs *RuleSet) ([]byte, error)

func (f BuilderFunc) Build(ctx context.Context, root *Element, rs *RuleSet) ([]byte, error) {
	return f(ctx, root, rs)
}
