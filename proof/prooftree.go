package proof

import (
	"context"
	"errors"
	"fmt"

	"github.com/dashpay/grovedbg/pathctx"
	"github.com/dashpay/grovedbg/wire"
)

var (
	// ErrMalformedProof is returned when a merk proof op log does not
	// reduce to a single root: a pop on an empty stack, a push without a
	// node payload, or a final stack of any size other than one.
	ErrMalformedProof = errors.New("malformed merk proof")
	// ErrMissingRootProof is returned when a proof carries no layer for
	// the root subtree.
	ErrMissingRootProof = errors.New("proof has no root subtree layer")
)

// noChild marks an absent left or right link in a reconstructed proof node.
const noChild = -1

// Node is one reconstructed proof tree node. Left and Right index into the
// owning SubtreeProof's Nodes slice, noChild when the proof has no link.
// Update is the real fetched node once cross-referencing resolved it.
type Node struct {
	Left   int
	Right  int
	Value  wire.ProofNodeValue
	Update *wire.NodeUpdate
}

// Key returns the key this proof node discloses, preferring the proof value
// itself over the cross-referenced update. Nil for pruned hash-only nodes
// that were not resolved.
func (n *Node) Key() []byte {
	if len(n.Value.Key) > 0 {
		return n.Value.Key
	}
	if n.Update != nil {
		return n.Update.Key
	}
	return nil
}

// SubtreeProof is the reconstructed proof tree of a single subtree: a flat
// node arena and the index of the root.
type SubtreeProof struct {
	Nodes []Node
	Root  int
}

// FromOps replays a merk proof op log and returns the tree it encodes.
//
// Push allocates a node and pushes its index. Parent pops the parent, then
// the child, and links the child on the left; Child pops the child, then
// the parent, and links on the right. The inverted variants link on the
// opposite side. The log is well formed only if the final stack holds
// exactly one index, the root.
func FromOps(ops []wire.ProofOp) (SubtreeProof, error) {
	var (
		nodes []Node
		stack []int
	)

	pop := func() (int, error) {
		if len(stack) == 0 {
			return 0, fmt.Errorf("%w: pop on empty stack", ErrMalformedProof)
		}
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return idx, nil
	}

	for i, op := range ops {
		switch op.Op {
		case wire.OpPush, wire.OpPushInverted:
			if op.Node == nil {
				return SubtreeProof{}, fmt.Errorf("%w: push op %d has no node", ErrMalformedProof, i)
			}
			nodes = append(nodes, Node{Left: noChild, Right: noChild, Value: *op.Node})
			stack = append(stack, len(nodes)-1)

		case wire.OpParent, wire.OpParentInverted:
			parent, err := pop()
			if err != nil {
				return SubtreeProof{}, err
			}
			child, err := pop()
			if err != nil {
				return SubtreeProof{}, err
			}
			if op.Op == wire.OpParent {
				nodes[parent].Left = child
			} else {
				nodes[parent].Right = child
			}
			stack = append(stack, parent)

		case wire.OpChild, wire.OpChildInverted:
			child, err := pop()
			if err != nil {
				return SubtreeProof{}, err
			}
			parent, err := pop()
			if err != nil {
				return SubtreeProof{}, err
			}
			if op.Op == wire.OpChild {
				nodes[parent].Right = child
			} else {
				nodes[parent].Left = child
			}
			stack = append(stack, parent)

		default:
			return SubtreeProof{}, fmt.Errorf("%w: unknown op %d", ErrMalformedProof, op.Op)
		}
	}

	if len(stack) != 1 {
		return SubtreeProof{}, fmt.Errorf("%w: final stack has %d items", ErrMalformedProof, len(stack))
	}
	return SubtreeProof{Nodes: nodes, Root: stack[0]}, nil
}

// NodeSource resolves real nodes for cross-referencing. The fetch client
// satisfies it.
type NodeSource interface {
	FetchRootNode(ctx context.Context) (*wire.NodeUpdate, error)
	FetchNode(ctx context.Context, path [][]byte, key []byte) (*wire.NodeUpdate, error)
}

// Tree holds the reconstructed proof trees of every subtree a proof
// response visited, addressed the same way the main tree model addresses
// its subtrees.
type Tree struct {
	ctx      *pathctx.PathCtx
	subtrees map[pathctx.Path]*SubtreeProof
}

// NewTree replays every layer of a proof into per-subtree trees and
// resolves the real root node for the root layer. Layers are visited
// breadth first so a nested layer's subtree path is interned after its
// parent's.
func NewTree(ctx context.Context, pctx *pathctx.PathCtx, source NodeSource, p wire.Proof) (*Tree, error) {
	t := &Tree{
		ctx:      pctx,
		subtrees: make(map[pathctx.Path]*SubtreeProof),
	}

	type layerAt struct {
		path  pathctx.Path
		layer wire.ProofLayer
	}
	queue := []layerAt{{path: pctx.Root(), layer: p.RootLayer}}

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		subtree, err := FromOps(entry.layer.MerkProof)
		if err != nil {
			return nil, err
		}
		t.subtrees[entry.path] = &subtree

		for key, lower := range entry.layer.LowerLayers {
			queue = append(queue, layerAt{path: entry.path.Child([]byte(key)), layer: lower})
		}
	}

	root, ok := t.subtrees[pctx.Root()]
	if !ok {
		return nil, ErrMissingRootProof
	}

	update, err := source.FetchRootNode(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving root node for proof: %w", err)
	}
	root.Nodes[root.Root].Update = update

	return t, nil
}

// Subtree returns the reconstructed proof tree at path, nil if the proof
// never visited it.
func (t *Tree) Subtree(path pathctx.Path) *SubtreeProof {
	return t.subtrees[path]
}

// ProofData exports the reconciled view for rendering: per subtree path,
// the proof nodes keyed by the key they disclose. Nodes whose key is
// unknown (pruned hashes that cross-referencing could not reach) are left
// out.
func (t *Tree) ProofData() map[pathctx.Path]map[string]*Node {
	out := make(map[pathctx.Path]map[string]*Node, len(t.subtrees))
	for path, subtree := range t.subtrees {
		byKey := make(map[string]*Node)
		for i := range subtree.Nodes {
			node := &subtree.Nodes[i]
			if key := node.Key(); key != nil {
				byKey[string(key)] = node
			}
		}
		out[path] = byKey
	}
	return out
}
