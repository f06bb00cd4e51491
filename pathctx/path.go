package pathctx

// Path is a handle to an interned address: either the root ("no segment") or
// one segment of the arena. Identity, equality and ordering are defined by
// the segment id alone, never by walking the bytes, so Path values are cheap
// map keys. The zero Path is not valid; obtain one from a PathCtx.
type Path struct {
	id  int
	ctx *PathCtx
}

// Ctx returns the owning arena.
func (p Path) Ctx() *PathCtx {
	return p.ctx
}

// IsRoot reports whether p is the canonical root Path.
func (p Path) IsRoot() bool {
	return p.id == noSegment
}

// Root returns the root Path of the same arena.
func (p Path) Root() Path {
	return Path{id: noSegment, ctx: p.ctx}
}

// Level is the depth from the root, root = 0. Cached at creation time.
func (p Path) Level() int {
	if p.id == noSegment {
		return 0
	}
	return p.ctx.segments[p.id].level
}

// Key returns the last segment's bytes, or nil for the root.
func (p Path) Key() []byte {
	if p.id == noSegment {
		return nil
	}
	return p.ctx.segments[p.id].bytes
}

// Child returns the Path one segment deeper. Calling Child twice with the
// same receiver and the same bytes yields identical handles.
func (p Path) Child(key []byte) Path {
	return Path{id: p.ctx.child(p.id, key), ctx: p.ctx}
}

// Parent returns the Path one segment up; ok is false only for the root.
func (p Path) Parent() (Path, bool) {
	if p.id == noSegment {
		return Path{}, false
	}
	return Path{id: p.ctx.segments[p.id].parent, ctx: p.ctx}, true
}

// ParentWithKey combines Parent with the edge label leading to p.
func (p Path) ParentWithKey() (Path, []byte, bool) {
	if p.id == noSegment {
		return Path{}, nil, false
	}
	seg := p.ctx.segments[p.id]
	return Path{id: seg.parent, ctx: p.ctx}, seg.bytes, true
}

// Sequence reconstructs the full byte-sequence address, O(depth).
func (p Path) Sequence() [][]byte {
	var rev [][]byte
	for id := p.id; id != noSegment; id = p.ctx.segments[id].parent {
		rev = append(rev, p.ctx.segments[id].bytes)
	}
	seq := make([][]byte, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		seq = append(seq, rev[i])
	}
	return seq
}

// EachDescendant visits every interned Path strictly below p, breadth-first.
// The arena is a tree, so no Path is visited twice.
func (p Path) EachDescendant(f func(Path)) {
	queue := append([]int(nil), p.ctx.childrenOf(p.id)...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		f(Path{id: id, ctx: p.ctx})
		queue = append(queue, p.ctx.segments[id].children...)
	}
}

// Less orders Paths of one arena by (level, id); used for deterministic
// iteration of path-keyed maps.
func (p Path) Less(other Path) bool {
	if l, ol := p.Level(), other.Level(); l != ol {
		return l < ol
	}
	return p.id < other.id
}

// DisplayHint returns the presentation hint of the last segment. The root
// has none.
func (p Path) DisplayHint() DisplayHint {
	if p.id == noSegment {
		return DisplayBytes
	}
	return p.ctx.segments[p.id].display
}

// SetDisplayHint overrides the guessed hint; identity is unaffected.
func (p Path) SetDisplayHint(hint DisplayHint) {
	if p.id == noSegment {
		return
	}
	p.ctx.segments[p.id].display = hint
}

// Alias returns the profile alias of the last segment, empty if unset.
func (p Path) Alias() string {
	if p.id == noSegment {
		return ""
	}
	return p.ctx.segments[p.id].alias
}

// SetAlias attaches a human readable name to the last segment.
func (p Path) SetAlias(alias string) {
	if p.id == noSegment {
		return
	}
	p.ctx.segments[p.id].alias = alias
}
