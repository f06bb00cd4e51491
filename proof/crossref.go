package proof

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dashpay/grovedbg/pathctx"
)

// ErrShapeMismatch is returned when the shape a proof claims disagrees with
// the fetched data: the proof links a child where the real node has none,
// or the real node has a child the proof does not account for.
var ErrShapeMismatch = errors.New("proof shape does not match fetched data")

// FetchAdditionalData pairs every reconstructed proof node with the real
// node it commits to, walking each subtree breadth first from its root.
// Subtrees are visited parents first, so a nested layer's root is resolved
// through the link node of its parent layer before its own walk starts.
//
// A branch whose shape disagrees with the fetched data, or whose fetch
// fails, is abandoned and reported; resolved siblings stay usable. All
// branch errors are joined into the returned error.
func (t *Tree) FetchAdditionalData(ctx context.Context, source NodeSource) error {
	paths := make([]pathctx.Path, 0, len(t.subtrees))
	for path := range t.subtrees {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Less(paths[j]) })

	var errs []error
	for _, path := range paths {
		if err := t.crossReference(ctx, source, path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tree) crossReference(ctx context.Context, source NodeSource, path pathctx.Path) error {
	subtree := t.subtrees[path]
	pathSeq := path.Sequence()

	var errs []error
	queue := []int{subtree.Root}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]

		node := &subtree.Nodes[idx]
		if node.Update == nil {
			// Nothing real to compare against; the branch below a
			// pruned or unresolved node stays proof-only.
			continue
		}

		t.resolveLowerLayer(ctx, source, path, node, &errs)

		for _, side := range []struct {
			name     string
			proofIdx int
			realKey  []byte
		}{
			{"left", node.Left, node.Update.LeftChild},
			{"right", node.Right, node.Update.RightChild},
		} {
			switch {
			case side.proofIdx == noChild && len(side.realKey) == 0:

			case side.proofIdx == noChild:
				errs = append(errs, fmt.Errorf("%w: node %x has a real %s child %x the proof omits",
					ErrShapeMismatch, node.Key(), side.name, side.realKey))

			case len(side.realKey) == 0:
				errs = append(errs, fmt.Errorf("%w: proof links a %s child under node %x but the fetched node has none",
					ErrShapeMismatch, side.name, node.Key()))

			default:
				update, err := source.FetchNode(ctx, pathSeq, side.realKey)
				if err != nil {
					errs = append(errs, fmt.Errorf("fetching %s child %x of node %x: %w",
						side.name, side.realKey, node.Key(), err))
					continue
				}
				if update == nil {
					errs = append(errs, fmt.Errorf("%w: %s child %x of node %x is unknown to the endpoint",
						ErrShapeMismatch, side.name, side.realKey, node.Key()))
					continue
				}
				subtree.Nodes[side.proofIdx].Update = update
				queue = append(queue, side.proofIdx)
			}
		}
	}
	return errors.Join(errs...)
}

// resolveLowerLayer seeds the root of a nested proof layer with its real
// node. A lower layer hangs off a subtree link node of the current layer;
// the link's root key addresses the nested subtree's root node.
func (t *Tree) resolveLowerLayer(ctx context.Context, source NodeSource, path pathctx.Path, node *Node, errs *[]error) {
	key := node.Key()
	if key == nil {
		return
	}
	lower, ok := t.subtrees[path.Child(key)]
	if !ok {
		return
	}
	if lower.Nodes[lower.Root].Update != nil {
		return
	}

	rootKey := node.Update.Element.RootKey
	if len(rootKey) == 0 {
		// Empty subtree; its layer has nothing real to pair with.
		return
	}

	childPath := path.Child(key)
	update, err := source.FetchNode(ctx, childPath.Sequence(), rootKey)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("resolving nested layer root %x under %x: %w", rootKey, key, err))
		return
	}
	if update == nil {
		*errs = append(*errs, fmt.Errorf("%w: nested layer root %x under %x is unknown to the endpoint",
			ErrShapeMismatch, rootKey, key))
		return
	}
	lower.Nodes[lower.Root].Update = update
}
