package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/token"
)

// TOML returns a Reader for TOML documents. TOML tables are unordered, so
// members are emitted in sorted key order. Datetimes become RFC 3339 strings.
func TOML() specdoc.Reader { return tomlReader{} }

type tomlReader struct{}

func (tomlReader) Read(ctx context.Context, data []byte) (*specdoc.Content, error) {
	text, err := Normalize(data)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := toml.Unmarshal(text, &doc); err != nil {
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return nil, fmt.Errorf("toml: %d:%d: %w", row, col, err)
		}
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	src, err := token.FromValue(doc)
	if err != nil {
		return nil, err
	}
	return &specdoc.Content{Format: FormatTOML, Text: text, Tokens: src}, nil
}
