// Package tree maintains the currently known state of a remote GroveDB: a
// map from interned paths to subtrees, where each subtree tracks the nodes
// fetched so far.
//
// Node updates arrive in arbitrary order. A node can show up before its
// parent, after its children, or be evicted and re-fetched any number of
// times. Every subtree therefore keeps two bookkeeping sets next to its node
// map:
//
//   - cluster roots: keys that are known locally but not reachable from the
//     subtree's root because their parent has not arrived; each is the root
//     of a disconnected fragment the presentation layer can still draw
//   - waitlist: keys referenced as a child by some known node but whose own
//     data has not arrived yet
//
// Insert and Remove restore the invariants before returning: the two sets
// are disjoint, waitlisted keys are never present in the node map, and no
// known node claims a cluster root as its child. Insert is idempotent and
// implemented as remove-then-apply, so re-fetching a key with changed
// children needs no special casing.
//
// Operations never fail; they are monotonic state merges over eventually
// consistent remote data. Malformed upstream data is rejected one layer up,
// in the wire package, before it can reach this model.
package tree
