// Package wire defines the normalized records exchanged with a GroveDB
// debugger endpoint and their conversion into the in-memory model.
//
// The records are dumb: plain structs with CBOR tags, no
// behaviour. Everything order-sensitive or identity-sensitive (path
// interning, waitlist bookkeeping) happens after conversion, in the pathctx
// and tree packages.
//
// Conversion is also where malformed upstream data is stopped. The six
// reference rewriting schemes are pure functions over the node's own address
// and the reference payload; a scheme that computes an empty address fails
// with ErrReferenceWithoutKey so the caller can skip the single offending
// node without aborting the batch.
package wire
