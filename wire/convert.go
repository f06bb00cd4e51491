package wire

import (
	"errors"
	"fmt"

	"github.com/dashpay/grovedbg/pathctx"
	"github.com/dashpay/grovedbg/tree"
)

var (
	// ErrReferenceWithoutKey is returned when an address rewriting scheme
	// computes an empty address: there is no key left to point at.
	ErrReferenceWithoutKey = errors.New("computed reference has no key")
	// ErrUnknownElementKind is returned for a Kind outside the closed set.
	ErrUnknownElementKind = errors.New("unknown element kind")
)

// NodeFromUpdate converts a fetched record into a model node, resolving any
// reference element against the update's own address. It fails only for
// malformed reference payloads; the caller is expected to skip the single
// offending node and keep applying the rest of the batch.
func NodeFromUpdate(ctx *pathctx.PathCtx, u NodeUpdate) (*tree.Node, error) {
	element, err := ElementFromWire(ctx, u.Path, u.Key, u.Element)
	if err != nil {
		return nil, err
	}
	node := &tree.Node{
		Element:      element,
		LeftChild:    u.LeftChild,
		RightChild:   u.RightChild,
		ValueHash:    u.ValueHash,
		KVDigestHash: u.KVDigestHash,
	}
	if u.FeatureType != nil {
		node.Feature = &tree.FeatureType{Summed: u.FeatureType.Summed, Sum: u.FeatureType.Sum}
	}
	return node, nil
}

// ElementFromWire converts a wire element located at (path, key) into its
// model form. Reference kinds are rewritten into a concrete (Path, Key)
// pair; all six schemes are pure functions over the element's own address
// and the reference payload.
func ElementFromWire(ctx *pathctx.PathCtx, path [][]byte, key []byte, e Element) (tree.Element, error) {
	switch e.Kind {
	case KindSubtree:
		return tree.SubtreeLink{RootKey: e.RootKey, Flags: e.Flags}, nil
	case KindSumtree:
		return tree.SumtreeLink{RootKey: e.RootKey, Sum: e.Sum, Flags: e.Flags}, nil
	case KindItem:
		return tree.Item{Value: e.Value, Flags: e.Flags}, nil
	case KindSumItem:
		return tree.SumItem{Value: e.SumValue, Flags: e.Flags}, nil
	case KindAbsolutePathReference:
		return absolutePathReference(ctx, e.Path, e.Flags)
	case KindUpstreamRootHeightReference:
		return upstreamRootHeightReference(ctx, path, e.NKeep, e.PathAppend, e.Flags)
	case KindUpstreamFromElementHeightReference:
		return upstreamFromElementHeightReference(ctx, path, e.NRemove, e.PathAppend, e.Flags)
	case KindCousinReference:
		return cousinReference(ctx, path, key, e.SwapParent, e.Flags)
	case KindRemovedCousinReference:
		return removedCousinReference(ctx, path, key, e.SwapParentPath, e.Flags)
	case KindSiblingReference:
		return siblingReference(ctx, path, e.SiblingKey, e.Flags), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownElementKind, e.Kind)
	}
}

// absolutePathReference points at the last segment of an absolute address;
// the rest of the address is the target subtree's path.
func absolutePathReference(ctx *pathctx.PathCtx, path [][]byte, flags []byte) (tree.Element, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: absolute path reference", ErrReferenceWithoutKey)
	}
	return tree.Reference{
		Path:  ctx.Add(path[:len(path)-1]),
		Key:   path[len(path)-1],
		Flags: flags,
	}, nil
}

// upstreamRootHeightReference keeps the first nKeep segments of the node's
// own address and appends the payload.
func upstreamRootHeightReference(ctx *pathctx.PathCtx, current [][]byte, nKeep uint32, pathAppend [][]byte, flags []byte) (tree.Element, error) {
	keep := min(int(nKeep), len(current))
	path := append(append([][]byte{}, current[:keep]...), pathAppend...)
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: upstream root height reference", ErrReferenceWithoutKey)
	}
	return tree.Reference{
		Path:  ctx.Add(path[:len(path)-1]),
		Key:   path[len(path)-1],
		Flags: flags,
	}, nil
}

// upstreamFromElementHeightReference drops the last nRemove+1 segments of
// the node's own address (the element itself counts) and appends the
// payload.
func upstreamFromElementHeightReference(ctx *pathctx.PathCtx, current [][]byte, nRemove uint32, pathAppend [][]byte, flags []byte) (tree.Element, error) {
	keep := max(len(current)-int(nRemove)-1, 0)
	path := append(append([][]byte{}, current[:keep]...), pathAppend...)
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: upstream from element height reference", ErrReferenceWithoutKey)
	}
	return tree.Reference{
		Path:  ctx.Add(path[:len(path)-1]),
		Key:   path[len(path)-1],
		Flags: flags,
	}, nil
}

// cousinReference swaps the node's direct parent segment; the key stays.
func cousinReference(ctx *pathctx.PathCtx, current [][]byte, key, swapParent []byte, flags []byte) (tree.Element, error) {
	if len(current) == 0 {
		return nil, fmt.Errorf("%w: cousin reference", ErrReferenceWithoutKey)
	}
	path := append(append([][]byte{}, current[:len(current)-1]...), swapParent)
	return tree.Reference{Path: ctx.Add(path), Key: key, Flags: flags}, nil
}

// removedCousinReference replaces the node's direct parent segment with a
// whole path; the key stays.
func removedCousinReference(ctx *pathctx.PathCtx, current [][]byte, key []byte, swapParentPath [][]byte, flags []byte) (tree.Element, error) {
	if len(current) == 0 {
		return nil, fmt.Errorf("%w: removed cousin reference", ErrReferenceWithoutKey)
	}
	path := append(append([][]byte{}, current[:len(current)-1]...), swapParentPath...)
	return tree.Reference{Path: ctx.Add(path), Key: key, Flags: flags}, nil
}

// siblingReference points at another key of the same subtree; it cannot
// compute an empty address.
func siblingReference(ctx *pathctx.PathCtx, current [][]byte, siblingKey []byte, flags []byte) tree.Element {
	return tree.Reference{Path: ctx.Add(current), Key: siblingKey, Flags: flags}
}
