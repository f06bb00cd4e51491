package wire

import "github.com/google/uuid"

// ElementKind discriminates the wire element union.
type ElementKind uint8

const (
	KindSubtree ElementKind = iota + 1
	KindSumtree
	KindItem
	KindSumItem
	KindAbsolutePathReference
	KindUpstreamRootHeightReference
	KindUpstreamFromElementHeightReference
	KindCousinReference
	KindRemovedCousinReference
	KindSiblingReference
)

// Element is the tagged wire form of a node's value. Only the fields of the
// active Kind are meaningful.
type Element struct {
	Kind ElementKind `cbor:"kind"`

	// Item / SumItem
	Value    []byte `cbor:"value,omitempty"`
	SumValue int64  `cbor:"sum_value,omitempty"`

	// Subtree / Sumtree links
	RootKey []byte `cbor:"root_key,omitempty"`
	Sum     int64  `cbor:"sum,omitempty"`

	// Reference rewriting payloads
	Path           [][]byte `cbor:"path,omitempty"`
	NKeep          uint32   `cbor:"n_keep,omitempty"`
	NRemove        uint32   `cbor:"n_remove,omitempty"`
	PathAppend     [][]byte `cbor:"path_append,omitempty"`
	SwapParent     []byte   `cbor:"swap_parent,omitempty"`
	SwapParentPath [][]byte `cbor:"swap_parent_path,omitempty"`
	SiblingKey     []byte   `cbor:"sibling_key,omitempty"`

	Flags []byte `cbor:"flags,omitempty"`
}

// FeatureType mirrors the Merk tree feature of a node: basic, or summed with
// the accumulated value.
type FeatureType struct {
	Summed bool  `cbor:"summed"`
	Sum    int64 `cbor:"sum,omitempty"`
}

// NodeUpdate is one fetched node, addressed by the path of its subtree and
// its key within it.
type NodeUpdate struct {
	Path          [][]byte     `cbor:"path"`
	Key           []byte       `cbor:"key"`
	Element       Element      `cbor:"element"`
	LeftChild     []byte       `cbor:"left_child,omitempty"`
	LeftMerkHash  []byte       `cbor:"left_merk_hash,omitempty"`
	RightChild    []byte       `cbor:"right_child,omitempty"`
	RightMerkHash []byte       `cbor:"right_merk_hash,omitempty"`
	FeatureType   *FeatureType `cbor:"feature_type,omitempty"`
	ValueHash     []byte       `cbor:"value_hash,omitempty"`
	KVDigestHash  []byte       `cbor:"kv_digest_hash,omitempty"`
}

// ProofOpKind is the opcode of a single Merk proof operation.
type ProofOpKind uint8

const (
	OpPush ProofOpKind = iota + 1
	OpPushInverted
	OpParent
	OpChild
	OpParentInverted
	OpChildInverted
)

// ProofOp is one step of the linear proof log; Node is set for push ops.
type ProofOp struct {
	Op   ProofOpKind     `cbor:"op"`
	Node *ProofNodeValue `cbor:"node,omitempty"`
}

// ProofValueKind discriminates what a pushed proof node discloses.
type ProofValueKind uint8

const (
	ProofHash ProofValueKind = iota + 1
	ProofKVHash
	ProofKVDigest
	ProofKV
	ProofKVValueHash
	ProofKVValueHashFeatureType
	ProofKVRefValueHash
)

// ProofNodeValue is the payload of a push op: anything from a bare hash of a
// pruned branch up to a full key/element pair with its value hash.
type ProofNodeValue struct {
	Kind        ProofValueKind `cbor:"kind"`
	Hash        []byte         `cbor:"hash,omitempty"`
	Key         []byte         `cbor:"key,omitempty"`
	Element     *Element       `cbor:"element,omitempty"`
	ValueHash   []byte         `cbor:"value_hash,omitempty"`
	FeatureType *FeatureType   `cbor:"feature_type,omitempty"`
}

// ProofLayer is a Merk proof for one subtree plus the proofs of the nested
// subtrees the query descended into, keyed by the link node's key.
type ProofLayer struct {
	MerkProof   []ProofOp             `cbor:"merk_proof"`
	LowerLayers map[string]ProofLayer `cbor:"lower_layers,omitempty"`
}

// Proof is the response to a prove-path-query request.
type Proof struct {
	ProveOptions ProveOptions `cbor:"prove_options"`
	RootLayer    ProofLayer   `cbor:"root_layer"`
}

type ProveOptions struct {
	DecreaseLimitOnEmptySubQuery bool `cbor:"decrease_limit_on_empty_sub_query"`
}

// PathQuery selects keys under one path, with optional nested subqueries.
type PathQuery struct {
	Path  [][]byte `cbor:"path"`
	Query Query    `cbor:"query"`
}

type Query struct {
	Items        []QueryItem `cbor:"items"`
	Limit        *uint16     `cbor:"limit,omitempty"`
	Offset       *uint16     `cbor:"offset,omitempty"`
	LeftToRight  bool        `cbor:"left_to_right"`
	SubqueryPath [][]byte    `cbor:"subquery_path,omitempty"`
	Subquery     *Query      `cbor:"subquery,omitempty"`
}

// QueryItemKind discriminates a single query item.
type QueryItemKind uint8

const (
	QueryKey QueryItemKind = iota + 1
	QueryRange
	QueryRangeInclusive
	QueryRangeFull
)

type QueryItem struct {
	Kind  QueryItemKind `cbor:"kind"`
	Key   []byte        `cbor:"key,omitempty"`
	Start []byte        `cbor:"start,omitempty"`
	End   []byte        `cbor:"end,omitempty"`
}

// Session plumbing: every data request is wrapped with the session id the
// endpoint allocated for this debugger instance.

type NewSessionResponse struct {
	SessionID uuid.UUID `cbor:"session_id"`
}

type DropSessionRequest struct {
	SessionID uuid.UUID `cbor:"session_id"`
}

// WithSession wraps a request record with the issuing session.
type WithSession[R any] struct {
	SessionID uuid.UUID `cbor:"session_id"`
	Request   R         `cbor:"request"`
}

type NodeFetchRequest struct {
	Path [][]byte `cbor:"path"`
	Key  []byte   `cbor:"key"`
}

type RootFetchRequest struct{}
