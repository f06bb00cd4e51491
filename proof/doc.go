// Package proof rebuilds binary merk proof trees from the linear op logs a
// prove-path-query response carries, one reconstructed tree per visited
// subtree.
//
// A merk proof is a stack program: push ops allocate nodes, parent/child ops
// pop two stack entries and wire one as a child of the other. Replaying the
// program must leave exactly one entry on the stack, the subtree's proof
// root; anything else means the proof cannot be trusted for display.
//
// The reconstructed trees only carry what the prover chose to disclose,
// which can be as little as a hash of a pruned branch. FetchAdditionalData
// walks each tree breadth first and pairs proof nodes with the real nodes
// fetched from the debug endpoint, so a viewer can show the disclosed proof
// values next to the live data they commit to. A disagreement between the
// shape the proof claims and the shape the fetched data shows is reported
// per branch and the rest of the tree stays usable.
package proof
