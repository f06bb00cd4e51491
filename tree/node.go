package tree

// FeatureType describes how a node participates in its Merk tree: plain, or
// summed with the accumulated value.
type FeatureType struct {
	Summed bool
	Sum    int64
}

// Node is one entry of a Subtree. Nodes are owned exclusively by their
// subtree's node map and are overwritten in place on re-fetch; arriving data
// replaces, it does not merge.
type Node struct {
	Element    Element
	LeftChild  []byte
	RightChild []byte
	Feature    *FeatureType

	// Merk hashes when the update carried them.
	ValueHash    []byte
	KVDigestHash []byte
}

// NewPlaceholderNode returns the stub recorded for a subtree that is known
// to exist but has not been fetched.
func NewPlaceholderNode() *Node {
	return &Node{Element: Placeholder{}}
}
