// Package pathctx interns subtree addresses.
//
// A GroveDB address is a sequence of byte-string segments. The debugger uses
// addresses pervasively as map keys, so recomputing or re-comparing the byte
// sequences for identity would dominate everything else. Instead every
// distinct (parent, segment) pair is allocated exactly once in an append-only
// arena and a Path is a plain index into it:
//
//   - two Paths obtained by walking the same byte sequence from the root are
//     identical by construction (structural sharing), so Path supports ==,
//     map keys and ordering without touching the segment bytes
//   - parent links and child lists give O(depth) reconstruction of the full
//     address and breadth-first traversal of everything below a Path
//
// Segments carry a couple of presentation hints (display variant, profile
// alias) that are mutable but never participate in identity.
//
// The arena is append-only for the lifetime of a session and performs no
// internal locking; mutation is funnelled through the single model owner, see
// the session package.
package pathctx
