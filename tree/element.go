package tree

import "github.com/dashpay/grovedbg/pathctx"

// Element is the value a subtree node holds. The variant set is closed:
// reference resolution and subtree-link checks rely on exhaustive type
// switches over exactly these six implementations.
type Element interface {
	isElement()
}

// Item is a scalar value, arbitrary bytes.
type Item struct {
	Value []byte
	Flags []byte
}

// SumItem is a value that is summed by the sumtree containing it.
type SumItem struct {
	Value int64
	Flags []byte
}

// SubtreeLink points at a deeper level subtree starting at RootKey; a nil
// RootKey indicates an empty subtree.
type SubtreeLink struct {
	RootKey []byte
	Flags   []byte
}

// SumtreeLink points at a deeper level subtree that accumulates a sum of its
// sum items; a nil RootKey indicates an empty subtree.
type SumtreeLink struct {
	RootKey []byte
	Sum     int64
	Flags   []byte
}

// Reference points at another (possibly the same) subtree's node. The
// address rewriting schemes of the wire format are already resolved into a
// concrete (Path, Key) pair by the time a Reference enters the model.
type Reference struct {
	Path  pathctx.Path
	Key   []byte
	Flags []byte
}

// Placeholder marks a subtree known to exist (an ancestor path mentioned it)
// whose node has not been fetched.
type Placeholder struct{}

func (Item) isElement()        {}
func (SumItem) isElement()     {}
func (SubtreeLink) isElement() {}
func (SumtreeLink) isElement() {}
func (Reference) isElement()   {}
func (Placeholder) isElement() {}

// linkRootKey reports whether e links to a nested subtree and, if so, the
// root key of that subtree (nil for a known-empty one).
func linkRootKey(e Element) ([]byte, bool) {
	switch link := e.(type) {
	case SubtreeLink:
		return link.RootKey, true
	case SumtreeLink:
		return link.RootKey, true
	default:
		return nil, false
	}
}

// IsSubtreeLink reports whether e stands for a nested subtree, including the
// not-yet-fetched placeholder case.
func IsSubtreeLink(e Element) bool {
	switch e.(type) {
	case SubtreeLink, SumtreeLink, Placeholder:
		return true
	default:
		return false
	}
}
