package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashpay/grovedbg/pathctx"
	"github.com/dashpay/grovedbg/proof"
	"github.com/dashpay/grovedbg/tree"
	"github.com/dashpay/grovedbg/wire"
)

func newTestSession(t *testing.T) *Session {
	logger.New("NOOP")
	t.Cleanup(logger.OnExit)
	return New(logger.Sugar.WithServiceName(t.Name()))
}

// fakeStore serves canned responses keyed by node key.
type fakeStore struct {
	root     *wire.NodeUpdate
	nodes    map[string]*wire.NodeUpdate
	queried  []wire.NodeUpdate
	proof    wire.Proof
	proofFn  func() wire.Proof
	proofErr error
}

func (f *fakeStore) FetchRootNode(context.Context) (*wire.NodeUpdate, error) {
	return f.root, nil
}

func (f *fakeStore) FetchNode(_ context.Context, _ [][]byte, key []byte) (*wire.NodeUpdate, error) {
	return f.nodes[string(key)], nil
}

func (f *fakeStore) FetchWithPathQuery(context.Context, wire.PathQuery) ([]wire.NodeUpdate, error) {
	return f.queried, nil
}

func (f *fakeStore) ProvePathQuery(context.Context, wire.PathQuery) (wire.Proof, error) {
	if f.proofFn != nil {
		return f.proofFn(), f.proofErr
	}
	return f.proof, f.proofErr
}

func itemUpdate(path [][]byte, key, value string) wire.NodeUpdate {
	return wire.NodeUpdate{
		Path:    path,
		Key:     []byte(key),
		Element: wire.Element{Kind: wire.KindItem, Value: []byte(value)},
	}
}

func getNode(t *testing.T, s *Session, path [][]byte, key string) (*tree.Node, bool) {
	t.Helper()
	var (
		node *tree.Node
		ok   bool
	)
	s.View(func(tr *tree.Tree, _ map[pathctx.Path]map[string]*proof.Node) {
		node, ok = tr.GetNode(s.Ctx().Add(path), []byte(key))
	})
	return node, ok
}

func TestApplyRootUpdate(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.ApplyRootUpdate(&wire.NodeUpdate{
		Key:     []byte("root"),
		Element: wire.Element{Kind: wire.KindSubtree, RootKey: []byte("r")},
	}))

	node, ok := getNode(t, s, nil, "root")
	require.True(t, ok)
	assert.Equal(t, tree.SubtreeLink{RootKey: []byte("r")}, node.Element)

	// An empty database response leaves the model untouched.
	require.NoError(t, s.ApplyRootUpdate(nil))
	_, ok = getNode(t, s, nil, "root")
	assert.True(t, ok)
}

func TestApplyNodeUpdatesSkipsUnresolvable(t *testing.T) {
	s := newTestSession(t)

	// A cousin reference at the root path cannot rewrite its address.
	bad := wire.NodeUpdate{
		Key:     []byte("bad"),
		Element: wire.Element{Kind: wire.KindCousinReference, SwapParent: []byte("u")},
	}
	good := itemUpdate(nil, "good", "v")

	err := s.ApplyNodeUpdates([]wire.NodeUpdate{bad, good})
	require.ErrorIs(t, err, wire.ErrReferenceWithoutKey)

	_, ok := getNode(t, s, nil, "bad")
	assert.False(t, ok)
	_, ok = getNode(t, s, nil, "good")
	assert.True(t, ok)
}

func TestUnloadSubtreeThenLateResponse(t *testing.T) {
	s := newTestSession(t)
	path := [][]byte{[]byte("data")}

	require.NoError(t, s.ApplyNodeUpdates([]wire.NodeUpdate{itemUpdate(path, "k", "v")}))
	s.UnloadSubtree(path)

	_, ok := getNode(t, s, path, "k")
	require.False(t, ok)

	// A response that was in flight when the user unloaded still applies.
	require.NoError(t, s.ApplyNodeUpdates([]wire.NodeUpdate{itemUpdate(path, "k", "v")}))
	_, ok = getNode(t, s, path, "k")
	assert.True(t, ok)
}

func TestReset(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyNodeUpdates([]wire.NodeUpdate{itemUpdate(nil, "k", "v")}))

	s.Reset()

	s.View(func(tr *tree.Tree, proofData map[pathctx.Path]map[string]*proof.Node) {
		assert.Zero(t, tr.Len())
		assert.Nil(t, proofData)
	})
}

func runCommands(t *testing.T, s *Session, store Store, cmds ...Command) {
	t.Helper()
	commands := make(chan Command, len(cmds))
	for _, cmd := range cmds {
		commands <- cmd
	}
	close(commands)
	s.Run(context.Background(), store, commands)
}

func TestRunFetchCommands(t *testing.T) {
	s := newTestSession(t)
	path := [][]byte{[]byte("data")}
	store := &fakeStore{
		root: &wire.NodeUpdate{
			Key:     []byte("data"),
			Element: wire.Element{Kind: wire.KindSubtree, RootKey: []byte("k")},
		},
		nodes: map[string]*wire.NodeUpdate{
			"k": {Path: path, Key: []byte("k"), Element: wire.Element{Kind: wire.KindItem, Value: []byte("v")}},
		},
		queried: []wire.NodeUpdate{itemUpdate(path, "q", "w")},
	}

	runCommands(t, s, store,
		FetchRoot{},
		FetchNode{Path: path, Key: []byte("k")},
		FetchWithPathQuery{},
	)

	_, ok := getNode(t, s, nil, "data")
	assert.True(t, ok)
	_, ok = getNode(t, s, path, "k")
	assert.True(t, ok)
	_, ok = getNode(t, s, path, "q")
	assert.True(t, ok)
}

func TestRunStopsWhenContextDone(t *testing.T) {
	s := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.Run(ctx, &fakeStore{}, make(chan Command))
}

func pushKV(key string) wire.ProofOp {
	return wire.ProofOp{Op: wire.OpPush, Node: &wire.ProofNodeValue{
		Kind: wire.ProofKV,
		Key:  []byte(key),
	}}
}

func TestRunProvePathQuery(t *testing.T) {
	s := newTestSession(t)
	store := &fakeStore{
		root: &wire.NodeUpdate{
			Key:        []byte("m"),
			Element:    wire.Element{Kind: wire.KindItem, Value: []byte("v")},
			LeftChild:  []byte("a"),
			RightChild: []byte("z"),
		},
		nodes: map[string]*wire.NodeUpdate{
			"a": {Key: []byte("a"), Element: wire.Element{Kind: wire.KindItem}},
			"z": {Key: []byte("z"), Element: wire.Element{Kind: wire.KindItem}},
		},
		proof: wire.Proof{RootLayer: wire.ProofLayer{MerkProof: []wire.ProofOp{
			pushKV("a"), pushKV("m"), {Op: wire.OpParent},
			pushKV("z"), {Op: wire.OpChild},
		}}},
	}

	runCommands(t, s, store, ProvePathQuery{})

	s.View(func(tr *tree.Tree, proofData map[pathctx.Path]map[string]*proof.Node) {
		byKey := proofData[s.Ctx().Root()]
		require.Len(t, byKey, 3)
		require.NotNil(t, byKey["a"].Update)
		require.NotNil(t, byKey["z"].Update)
	})

	// Cross-referenced nodes land in the tree model too.
	_, ok := getNode(t, s, nil, "a")
	assert.True(t, ok)
	_, ok = getNode(t, s, nil, "z")
	assert.True(t, ok)
}

// Proof building interns new subtree paths into the shared arena; readers
// walking it through View at the same time must be excluded. Run with the
// race detector on.
func TestProofBuildExcludesViewReaders(t *testing.T) {
	s := newTestSession(t)

	// Every proof carries a lower layer under a fresh link key, so each
	// command appends new segments to the path arena.
	var seq int
	store := &fakeStore{
		root: &wire.NodeUpdate{
			Key:     []byte("link"),
			Element: wire.Element{Kind: wire.KindSubtree, RootKey: []byte("r")},
		},
		nodes: map[string]*wire.NodeUpdate{
			"r": {Key: []byte("r"), Element: wire.Element{Kind: wire.KindItem}},
		},
		proofFn: func() wire.Proof {
			seq++
			key := fmt.Sprintf("link-%d", seq)
			return wire.Proof{RootLayer: wire.ProofLayer{
				MerkProof: []wire.ProofOp{pushKV(key)},
				LowerLayers: map[string]wire.ProofLayer{
					key: {MerkProof: []wire.ProofOp{pushKV("r")}},
				},
			}}
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			s.View(func(tr *tree.Tree, proofData map[pathctx.Path]map[string]*proof.Node) {
				tr.EachSubtree(func(path pathctx.Path, _ *tree.Subtree) {
					_ = path.Sequence()
					_ = path.Level()
				})
				for path := range proofData {
					_ = path.Key()
				}
			})
		}
	}()

	commands := make([]Command, 50)
	for i := range commands {
		commands[i] = ProvePathQuery{}
	}
	runCommands(t, s, store, commands...)
	<-done

	s.View(func(_ *tree.Tree, proofData map[pathctx.Path]map[string]*proof.Node) {
		require.Len(t, proofData, 2)
	})
}

func TestMalformedProofKeepsPreviousView(t *testing.T) {
	s := newTestSession(t)
	store := &fakeStore{
		root:  &wire.NodeUpdate{Key: []byte("m"), Element: wire.Element{Kind: wire.KindItem}},
		proof: wire.Proof{RootLayer: wire.ProofLayer{MerkProof: []wire.ProofOp{pushKV("m")}}},
	}
	runCommands(t, s, store, ProvePathQuery{})

	// The next proof does not reduce to a single root.
	store.proof = wire.Proof{RootLayer: wire.ProofLayer{MerkProof: []wire.ProofOp{
		pushKV("x"), pushKV("y"),
	}}}
	runCommands(t, s, store, ProvePathQuery{})

	s.View(func(_ *tree.Tree, proofData map[pathctx.Path]map[string]*proof.Node) {
		byKey := proofData[s.Ctx().Root()]
		require.Len(t, byKey, 1)
		assert.Contains(t, byKey, "m")
	})
}
