package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItemNode(value string) *Node {
	return &Node{Element: Item{Value: []byte(value)}}
}

func withChildren(n *Node, left, right string) *Node {
	if left != "" {
		n.LeftChild = []byte(left)
	}
	if right != "" {
		n.RightChild = []byte(right)
	}
	return n
}

// sampleSubtree builds:
//
//	root
//	├── right1
//	│   ├── right2
//	│   └── left2
//	│       ├── right4
//	│       └── left4
//	└── left1
//	    └── right3
func sampleSubtree() *Subtree {
	s := NewRootSubtree([]byte("root"))

	s.Insert([]byte("root"), withChildren(newItemNode("root_value"), "left1", "right1"))
	s.Insert([]byte("right1"), withChildren(newItemNode("right1_value"), "left2", "right2"))
	s.Insert([]byte("left1"), withChildren(newItemNode("left1_value"), "", "right3"))
	s.Insert([]byte("right2"), newItemNode("right2_value"))
	s.Insert([]byte("left2"), withChildren(newItemNode("left2_value"), "left4", "right4"))
	s.Insert([]byte("right3"), newItemNode("right3_value"))
	s.Insert([]byte("right4"), newItemNode("right4_value"))
	s.Insert([]byte("left4"), newItemNode("left4_value"))

	return s
}

// requireConsistent asserts the invariants that must hold after every
// mutation: the bookkeeping sets are disjoint and waitlisted keys are never
// present in the node map.
func requireConsistent(t *testing.T, s *Subtree) {
	t.Helper()
	for _, waiting := range s.Waitlist() {
		_, known := s.Get(waiting)
		require.False(t, known, "waitlist key %q must not be a known node", waiting)
		require.False(t, s.IsClusterRoot(waiting),
			"key %q is both waitlisted and a cluster root", waiting)
	}
	for _, cluster := range s.ClusterRoots() {
		s.EachNode(func(key []byte, node *Node) {
			assert.NotEqual(t, cluster, node.LeftChild,
				"cluster root %q is claimed as a left child of %q", cluster, key)
			assert.NotEqual(t, cluster, node.RightChild,
				"cluster root %q is claimed as a right child of %q", cluster, key)
		})
	}
}

func requireSubtreesEqual(t *testing.T, want, got *Subtree) {
	t.Helper()
	require.Equal(t, want.RootKey(), got.RootKey())
	require.Equal(t, want.ClusterRoots(), got.ClusterRoots())
	require.Equal(t, want.Waitlist(), got.Waitlist())
	require.Equal(t, want.Len(), got.Len())
	want.EachNode(func(key []byte, node *Node) {
		other, ok := got.Get(key)
		require.True(t, ok, "missing node %q", key)
		require.Equal(t, node, other)
	})
}

func TestSequentialInsertionLeavesNothingPending(t *testing.T) {
	s := sampleSubtree()

	assert.Empty(t, s.Waitlist())
	assert.Empty(t, s.ClusterRoots())
	requireConsistent(t, s)
}

func TestInsertIsIdempotent(t *testing.T) {
	s := sampleSubtree()

	s.Insert([]byte("right1"), withChildren(newItemNode("right1_value"), "left2", "right2"))

	requireSubtreesEqual(t, sampleSubtree(), s)
	requireConsistent(t, s)
}

func TestLeafRemovalGoesToWaitlist(t *testing.T) {
	s := sampleSubtree()

	// Unloading a node: its parent still claims it, so it is expected back.
	s.Remove([]byte("left4"))

	_, known := s.Get([]byte("left4"))
	assert.False(t, known)
	assert.Equal(t, [][]byte{[]byte("left4")}, s.Waitlist())
	assert.Empty(t, s.ClusterRoots())
	requireConsistent(t, s)
}

func TestLeafCompleteRemoval(t *testing.T) {
	s := sampleSubtree()

	s.Remove([]byte("left4"))
	// Re-fetch of the parent without the removed child clears the waitlist.
	s.Insert([]byte("left2"), withChildren(newItemNode("left2_value"), "", "right4"))

	_, known := s.Get([]byte("left4"))
	assert.False(t, known)
	assert.Empty(t, s.Waitlist())
	assert.Empty(t, s.ClusterRoots())
	requireConsistent(t, s)
}

func TestMidNodeDeleteCreatesClusters(t *testing.T) {
	s := sampleSubtree()

	s.Remove([]byte("right1"))

	_, known := s.Get([]byte("right1"))
	assert.False(t, known)
	assert.Equal(t, [][]byte{[]byte("right1")}, s.Waitlist())
	assert.Equal(t, [][]byte{[]byte("left2"), []byte("right2")}, s.ClusterRoots())
	requireConsistent(t, s)

	// Fetching it back restores the original state exactly.
	s.Insert([]byte("right1"), withChildren(newItemNode("right1_value"), "left2", "right2"))

	requireSubtreesEqual(t, sampleSubtree(), s)
	requireConsistent(t, s)
}

func TestOutOfOrderArrival(t *testing.T) {
	s := NewRootSubtree([]byte("root"))

	s.Insert([]byte("root"), withChildren(newItemNode("root_value"), "L", "R"))
	assert.Equal(t, [][]byte{[]byte("L"), []byte("R")}, s.Waitlist())
	requireConsistent(t, s)

	s.Insert([]byte("L"), newItemNode("l_value"))
	assert.Equal(t, [][]byte{[]byte("R")}, s.Waitlist())
	_, known := s.Get([]byte("L"))
	assert.True(t, known)
	requireConsistent(t, s)

	s.Insert([]byte("R"), newItemNode("r_value"))
	assert.Empty(t, s.Waitlist())
	assert.Empty(t, s.ClusterRoots())
	requireConsistent(t, s)
}

func TestChildArrivingBeforeParentIsACluster(t *testing.T) {
	s := NewRootSubtree([]byte("root"))

	s.Insert([]byte("orphan"), newItemNode("orphan_value"))
	assert.Equal(t, [][]byte{[]byte("orphan")}, s.ClusterRoots())
	requireConsistent(t, s)

	// The parent arrives and claims it; the cluster dissolves.
	s.Insert([]byte("root"), withChildren(newItemNode("root_value"), "orphan", ""))
	assert.Empty(t, s.ClusterRoots())
	assert.Empty(t, s.Waitlist())
	requireConsistent(t, s)
}

func TestSetRootPromotesClusterRoot(t *testing.T) {
	s := NewSubtree()

	s.Insert([]byte("a"), newItemNode("a_value"))
	assert.Equal(t, [][]byte{[]byte("a")}, s.ClusterRoots())

	s.SetRoot([]byte("a"))
	assert.Empty(t, s.ClusterRoots())
	assert.Equal(t, []byte("a"), s.RootKey())
	require.NotNil(t, s.RootNode())
	requireConsistent(t, s)
}

func TestSubtreeKeysTrackLinkNodes(t *testing.T) {
	s := NewRootSubtree([]byte("root"))

	s.Insert([]byte("root"), &Node{Element: SubtreeLink{RootKey: []byte("inner")}})
	assert.Equal(t, [][]byte{[]byte("root")}, s.SubtreeKeys())

	s.Insert([]byte("root"), newItemNode("replaced"))
	assert.Empty(t, s.SubtreeKeys())
}

func TestClearKeepsBookkeepingCoarse(t *testing.T) {
	s := sampleSubtree()
	s.Remove([]byte("left4"))
	require.NotEmpty(t, s.Waitlist())

	s.Clear()

	assert.True(t, s.IsEmpty())
	// Clear is coarser than Remove: pending expectations are left alone
	// and resolve on re-fetch.
	assert.NotEmpty(t, s.Waitlist())
	assert.Equal(t, []byte("root"), s.RootKey())
}
