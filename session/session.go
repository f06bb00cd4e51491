package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/dashpay/grovedbg/pathctx"
	"github.com/dashpay/grovedbg/proof"
	"github.com/dashpay/grovedbg/tree"
	"github.com/dashpay/grovedbg/wire"
)

// Session is the state of one debugger connection. Mutations take the
// write lock and complete their reconciliation work before releasing it,
// so readers never see a half applied batch.
type Session struct {
	log logger.Logger

	mu        sync.RWMutex
	pctx      *pathctx.PathCtx
	tree      *tree.Tree
	proofData map[pathctx.Path]map[string]*proof.Node
}

func New(log logger.Logger) *Session {
	pctx := pathctx.NewPathCtx()
	return &Session{
		log:  log,
		pctx: pctx,
		tree: tree.NewTree(pctx),
	}
}

// ApplyRootUpdate applies the fetched root node. A nil update means the
// database is empty; the model keeps whatever it has, matching how all
// other updates merge instead of truncate.
func (s *Session) ApplyRootUpdate(update *wire.NodeUpdate) error {
	if update == nil {
		s.log.Infof("no root node returned, database is empty")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := wire.NodeFromUpdate(s.pctx, *update)
	if err != nil {
		return fmt.Errorf("resolving root node: %w", err)
	}
	s.tree.SetRoot(update.Key)
	s.tree.Insert(s.pctx.Root(), update.Key, node)
	return nil
}

// ApplyNodeUpdates merges a batch of fetched nodes into the model. A node
// whose element cannot be resolved (a reference that rewrites to an empty
// address) is skipped and reported; it never aborts the rest of the batch.
func (s *Session) ApplyNodeUpdates(updates []wire.NodeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyNodeUpdatesLocked(updates)
}

func (s *Session) applyNodeUpdatesLocked(updates []wire.NodeUpdate) error {
	var errs []error
	for _, update := range updates {
		node, err := wire.NodeFromUpdate(s.pctx, update)
		if err != nil {
			s.log.Infof("skipping node %x at %x: %v", update.Key, update.Path, err)
			errs = append(errs, err)
			continue
		}
		s.tree.Insert(s.pctx.Add(update.Path), update.Key, node)
	}
	return errors.Join(errs...)
}

// UnloadSubtree drops the nodes of the subtree at path. The subtree entry
// itself stays; a fetch response that was already in flight re-inserts
// into it cleanly.
func (s *Session) UnloadSubtree(path [][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.ClearSubtree(s.pctx.Add(path))
}

// Reset discards all session state, keeping the logger.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pctx = pathctx.NewPathCtx()
	s.tree = tree.NewTree(s.pctx)
	s.proofData = nil
}

// View runs f with the read lock held. The tree and proof table must not
// be retained past the call.
func (s *Session) View(f func(t *tree.Tree, proofData map[pathctx.Path]map[string]*proof.Node)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f(s.tree, s.proofData)
}

// Ctx returns the session's path arena. Reading interned paths is safe
// anywhere; interning new ones mutates the arena and must happen under the
// session's write lock, never concurrently with View readers.
func (s *Session) Ctx() *pathctx.PathCtx {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pctx
}
