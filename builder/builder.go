// Package builder provides Builders that serialize specdoc element trees.
//
// Every builder applies the RuleSet in build direction to a copy of the tree
// before writing it, so the caller's tree is never modified.
package builder

import (
	"context"
	"errors"

	specdoc "github.com/reoring/specdoc"
)

var errNilTree = errors.New("builder: nil tree")

// prepare clones root and runs the build-direction rules over the clone.
func prepare(ctx context.Context, root *specdoc.Element, rs *specdoc.RuleSet) (*specdoc.Element, error) {
	if root == nil {
		return nil, errNilTree
	}
	tree := root.Clone()
	if rs == nil {
		return tree, nil
	}
	return rs.Walk(ctx, tree, specdoc.DirectionBuild)
}
