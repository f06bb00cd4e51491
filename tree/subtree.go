package tree

import (
	"bytes"
	"sort"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/sets/treeset"
)

// Subtree is the set of known nodes living at one path of the grove.
type Subtree struct {
	// rootKey is the key of the subtree's logical root. It may be unknown
	// even when nodes are present: only the parent subtree can tell.
	rootKey []byte
	// nodes maps key -> *Node, ordered by key.
	nodes *treemap.Map
	// clusterRoots are keys known locally but not yet connected to rootKey.
	clusterRoots *treeset.Set
	// waitlist keys are referenced as a child by a known node but their own
	// data has not arrived.
	waitlist *hashset.Set
	// subtreeKeys are keys of nodes that link into nested subtrees.
	subtreeKeys *treeset.Set
}

func NewSubtree() *Subtree {
	return &Subtree{
		nodes:        treemap.NewWithStringComparator(),
		clusterRoots: treeset.NewWithStringComparator(),
		waitlist:     hashset.New(),
		subtreeKeys:  treeset.NewWithStringComparator(),
	}
}

func NewRootSubtree(rootKey []byte) *Subtree {
	s := NewSubtree()
	s.SetRoot(rootKey)
	return s
}

// SetRoot records the subtree's logical root key. A node previously stranded
// as a cluster root stops being one the moment it is promoted.
func (s *Subtree) SetRoot(rootKey []byte) {
	s.clusterRoots.Remove(string(rootKey))
	s.rootKey = bytes.Clone(rootKey)
}

// RootKey returns the logical root key, nil while unknown.
func (s *Subtree) RootKey() []byte {
	return s.rootKey
}

// RootNode returns the root node if both the root key and its data arrived.
func (s *Subtree) RootNode() *Node {
	if s.rootKey == nil {
		return nil
	}
	node, _ := s.Get(s.rootKey)
	return node
}

func (s *Subtree) Get(key []byte) (*Node, bool) {
	v, ok := s.nodes.Get(string(key))
	if !ok {
		return nil, false
	}
	return v.(*Node), true
}

func (s *Subtree) Len() int {
	return s.nodes.Size()
}

func (s *Subtree) IsEmpty() bool {
	return s.nodes.Empty()
}

// Insert places a node that is not necessarily connected to the current
// state. Inserting the same key again first undoes the previous node's
// bookkeeping, making Insert idempotent and safe for re-fetches with changed
// children.
func (s *Subtree) Insert(key []byte, node *Node) {
	s.Remove(key)

	// Three cases for the arriving node:
	// 1. It is the root node. Nothing extra to do.
	// 2. Some known parent already claims it: satisfy the waitlist entry.
	// 3. Nothing expects it yet: it becomes the root of its own cluster
	//    until a parent arrives.
	k := string(key)
	if s.waitlist.Contains(k) {
		s.waitlist.Remove(k)
	} else if !s.isRoot(key) {
		s.clusterRoots.Add(k)
	}

	// Each missing child is now expected, and a child that was a cluster
	// root is not orphaned anymore: this node claims it.
	for _, child := range [][]byte{node.LeftChild, node.RightChild} {
		if child == nil {
			continue
		}
		ck := string(child)
		if _, known := s.nodes.Get(ck); !known {
			s.waitlist.Add(ck)
		}
		s.clusterRoots.Remove(ck)
	}

	s.nodes.Put(k, node)

	if _, ok := linkRootKey(node.Element); ok || isPlaceholder(node.Element) {
		s.subtreeKeys.Add(k)
	}
}

// insertIfAbsent is used for placeholders: never clobber fetched data.
func (s *Subtree) insertIfAbsent(key []byte, node *Node) {
	if _, ok := s.nodes.Get(string(key)); !ok {
		s.Insert(key, node)
	}
}

// Remove undoes a node's contribution; removing an unknown key is a no-op.
// Children that lost their only known parent become cluster roots, and the
// removed key itself turns into a waitlist entry unless it is the root or a
// cluster root: an evicted node is "pending re-fetch", not forgotten.
func (s *Subtree) Remove(key []byte) {
	k := string(key)
	v, ok := s.nodes.Get(k)
	if !ok {
		return
	}
	node := v.(*Node)
	s.nodes.Remove(k)
	s.subtreeKeys.Remove(k)

	for _, child := range [][]byte{node.LeftChild, node.RightChild} {
		if child == nil {
			continue
		}
		ck := string(child)
		// No one asks for the child via this node anymore.
		s.waitlist.Remove(ck)
		if _, known := s.nodes.Get(ck); known {
			s.clusterRoots.Add(ck)
		}
	}

	if !s.isRoot(key) && !s.clusterRoots.Contains(k) {
		s.waitlist.Add(k)
	}
}

// Clear drops every node at once; it is the "unload everything under this
// address" operation. Unlike repeated Remove it leaves the waitlist and
// cluster-root sets alone, pending entries resolve on re-fetch.
func (s *Subtree) Clear() {
	s.nodes.Clear()
}

func (s *Subtree) isRoot(key []byte) bool {
	return s.rootKey != nil && bytes.Equal(s.rootKey, key)
}

// EachNode visits known nodes in key order.
func (s *Subtree) EachNode(f func(key []byte, node *Node)) {
	s.nodes.Each(func(k, v interface{}) {
		f([]byte(k.(string)), v.(*Node))
	})
}

// ClusterRoots returns the disconnected fragment roots in key order.
func (s *Subtree) ClusterRoots() [][]byte {
	return setKeys(s.clusterRoots.Values())
}

// Waitlist returns the expected-but-missing keys in key order.
func (s *Subtree) Waitlist() [][]byte {
	values := s.waitlist.Values()
	keys := setKeys(values)
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	return keys
}

// SubtreeKeys returns keys of nodes linking into nested subtrees, in order.
func (s *Subtree) SubtreeKeys() [][]byte {
	return setKeys(s.subtreeKeys.Values())
}

// IsClusterRoot reports whether key heads a disconnected fragment.
func (s *Subtree) IsClusterRoot(key []byte) bool {
	return s.clusterRoots.Contains(string(key))
}

// IsWaiting reports whether key is expected but not yet fetched.
func (s *Subtree) IsWaiting(key []byte) bool {
	return s.waitlist.Contains(string(key))
}

func isPlaceholder(e Element) bool {
	_, ok := e.(Placeholder)
	return ok
}

func setKeys(values []interface{}) [][]byte {
	keys := make([][]byte, 0, len(values))
	for _, v := range values {
		keys = append(keys, []byte(v.(string)))
	}
	return keys
}
