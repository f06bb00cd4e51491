package tree

import (
	"sort"

	"github.com/dashpay/grovedbg/pathctx"
)

// Tree holds the currently known state of the whole grove: one Subtree per
// interned path. A Tree is created once per debugging session and replaced
// wholesale on session reset.
type Tree struct {
	ctx      *pathctx.PathCtx
	subtrees map[pathctx.Path]*Subtree
}

func NewTree(ctx *pathctx.PathCtx) *Tree {
	return &Tree{
		ctx:      ctx,
		subtrees: map[pathctx.Path]*Subtree{},
	}
}

// Ctx returns the path arena all subtree keys belong to.
func (t *Tree) Ctx() *pathctx.PathCtx {
	return t.ctx
}

// SetRoot records the root key of the grove's root subtree.
func (t *Tree) SetRoot(rootKey []byte) {
	t.subtree(t.ctx.Root()).SetRoot(rootKey)
}

// GetSubtree returns the subtree at path if any of its state is known.
func (t *Tree) GetSubtree(path pathctx.Path) (*Subtree, bool) {
	s, ok := t.subtrees[path]
	return s, ok
}

// GetNode returns the node stored under (path, key).
func (t *Tree) GetNode(path pathctx.Path, key []byte) (*Node, bool) {
	s, ok := t.subtrees[path]
	if !ok {
		return nil, false
	}
	return s.Get(key)
}

// Len returns the number of known subtrees.
func (t *Tree) Len() int {
	return len(t.subtrees)
}

// Insert places a node update into the subtree at path, creating the chain
// of parent subtrees (with placeholder link nodes) on the way down, so that
// data two levels deep never implies the intermediate subtrees were
// verified. A subtree-link node also primes the nested subtree's root key.
func (t *Tree) Insert(path pathctx.Path, key []byte, node *Node) {
	t.populateSubtreesChain(path)

	if rootKey, ok := linkRootKey(node.Element); ok {
		child := t.subtree(path.Child(key))
		if rootKey != nil {
			child.SetRoot(rootKey)
		}
	}

	t.subtrees[path].Insert(key, node)
}

// Remove undoes the node's contribution to the subtree at path, see
// Subtree.Remove. Unknown paths and keys are no-ops.
func (t *Tree) Remove(path pathctx.Path, key []byte) {
	if s, ok := t.subtrees[path]; ok {
		s.Remove(key)
	}
}

// ClearSubtree unloads every node of the subtree at path. Bookkeeping of
// other subtrees is untouched: if a parent node links here, the subtree
// entry itself survives and can be repopulated.
func (t *Tree) ClearSubtree(path pathctx.Path) {
	if s, ok := t.subtrees[path]; ok {
		s.Clear()
	}
}

// EachSubtree visits subtrees ordered by path (level first, then insertion
// order of the path arena).
func (t *Tree) EachSubtree(f func(path pathctx.Path, s *Subtree)) {
	paths := make([]pathctx.Path, 0, len(t.subtrees))
	for p := range t.subtrees {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Less(paths[j]) })
	for _, p := range paths {
		f(p, t.subtrees[p])
	}
}

// subtree returns the Subtree at path, creating an empty one if needed.
func (t *Tree) subtree(path pathctx.Path) *Subtree {
	s, ok := t.subtrees[path]
	if !ok {
		s = NewSubtree()
		t.subtrees[path] = s
	}
	return s
}

// populateSubtreesChain ensures every subtree from the root down to path
// exists, and that each intermediate subtree carries a placeholder node for
// the next segment's key. The target itself gets a subtree entry but no
// placeholder node.
func (t *Tree) populateSubtreesChain(path pathctx.Path) {
	t.subtree(path)
	current, key, ok := path.ParentWithKey()
	for ok {
		t.subtree(current).insertIfAbsent(key, NewPlaceholderNode())
		current, key, ok = current.ParentWithKey()
	}
}
