package pathctx

import "bytes"

// noSegment is the id a root Path carries instead of an arena index.
const noSegment = -1

// segment is one edge label of the address trie. Segments are created once
// per unique (parent, bytes) pair and never deleted.
type segment struct {
	parent   int // noSegment for a first-level segment
	children []int
	bytes    []byte
	level    int

	// presentation hints, excluded from identity
	display DisplayHint
	alias   string
}

// PathCtx is an append-only arena of path segments. All Paths of one session
// share a single PathCtx and are only comparable within it.
type PathCtx struct {
	segments     []segment
	rootChildren []int
}

func NewPathCtx() *PathCtx {
	return &PathCtx{}
}

// Root returns the canonical "no segment" Path. It never allocates.
func (c *PathCtx) Root() Path {
	return Path{id: noSegment, ctx: c}
}

// Add interns a full byte-sequence address and returns its Path.
func (c *PathCtx) Add(path [][]byte) Path {
	current := c.Root()
	for _, seg := range path {
		current = current.Child(seg)
	}
	return current
}

// childrenOf returns the child id list under a segment id, or the root list.
func (c *PathCtx) childrenOf(id int) []int {
	if id == noSegment {
		return c.rootChildren
	}
	return c.segments[id].children
}

// child resolves or allocates the child segment with the given bytes.
func (c *PathCtx) child(parent int, key []byte) int {
	for _, id := range c.childrenOf(parent) {
		if bytes.Equal(c.segments[id].bytes, key) {
			return id
		}
	}

	level := 1
	if parent != noSegment {
		level = c.segments[parent].level + 1
	}
	id := len(c.segments)
	c.segments = append(c.segments, segment{
		parent:  parent,
		bytes:   bytes.Clone(key),
		level:   level,
		display: GuessDisplayHint(key),
	})
	if parent == noSegment {
		c.rootChildren = append(c.rootChildren, id)
	} else {
		c.segments[parent].children = append(c.segments[parent].children, id)
	}
	return id
}
