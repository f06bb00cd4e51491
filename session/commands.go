package session

import (
	"context"

	"github.com/dashpay/grovedbg/proof"
	"github.com/dashpay/grovedbg/wire"
)

// Store is the remote side of a session. The fetch client satisfies it.
type Store interface {
	proof.NodeSource
	FetchWithPathQuery(ctx context.Context, query wire.PathQuery) ([]wire.NodeUpdate, error)
	ProvePathQuery(ctx context.Context, query wire.PathQuery) (wire.Proof, error)
}

// Command is one unit of work for the session loop.
type Command interface {
	isCommand()
}

// FetchRoot retrieves the database root node.
type FetchRoot struct{}

// FetchNode retrieves a single node.
type FetchNode struct {
	Path [][]byte
	Key  []byte
}

// UnloadSubtree drops the loaded nodes of one subtree.
type UnloadSubtree struct {
	Path [][]byte
}

// FetchWithPathQuery loads every node a query selects.
type FetchWithPathQuery struct {
	Query wire.PathQuery
}

// ProvePathQuery requests a proof, rebuilds its per subtree trees and
// cross-references them against fetched data.
type ProvePathQuery struct {
	Query wire.PathQuery
}

func (FetchRoot) isCommand()          {}
func (FetchNode) isCommand()          {}
func (UnloadSubtree) isCommand()      {}
func (FetchWithPathQuery) isCommand() {}
func (ProvePathQuery) isCommand()     {}

// Run consumes commands until the channel closes or ctx is done. Command
// failures are logged and the loop moves on; one bad response must not wedge
// the session.
//
// There is no cancellation of in flight responses: unloading a subtree and
// then receiving an older fetch for it re-applies the nodes. Insertion is
// idempotent so the model stays consistent, at the cost of briefly showing
// data the user asked to discard.
func (s *Session) Run(ctx context.Context, store Store, commands <-chan Command) {
	s.log.Infof("session loop started")
	for {
		select {
		case <-ctx.Done():
			s.log.Infof("session loop stopped: %v", ctx.Err())
			return
		case cmd, ok := <-commands:
			if !ok {
				s.log.Infof("command channel closed, session loop stopped")
				return
			}
			if err := s.process(ctx, store, cmd); err != nil {
				s.log.Infof("command %T failed: %v", cmd, err)
			}
		}
	}
}

func (s *Session) process(ctx context.Context, store Store, cmd Command) error {
	switch cmd := cmd.(type) {
	case FetchRoot:
		update, err := store.FetchRootNode(ctx)
		if err != nil {
			return err
		}
		return s.ApplyRootUpdate(update)

	case FetchNode:
		update, err := store.FetchNode(ctx, cmd.Path, cmd.Key)
		if err != nil {
			return err
		}
		if update == nil {
			s.log.Infof("no node at %x key %x", cmd.Path, cmd.Key)
			return nil
		}
		return s.ApplyNodeUpdates([]wire.NodeUpdate{*update})

	case UnloadSubtree:
		s.UnloadSubtree(cmd.Path)
		return nil

	case FetchWithPathQuery:
		updates, err := store.FetchWithPathQuery(ctx, cmd.Query)
		if err != nil {
			return err
		}
		return s.ApplyNodeUpdates(updates)

	case ProvePathQuery:
		return s.provePathQuery(ctx, store, cmd.Query)

	default:
		s.log.Infof("ignoring unknown command %T", cmd)
		return nil
	}
}

// provePathQuery builds the proof view. The session's proof table is
// replaced only after the proof reduced to well formed trees; a malformed
// proof leaves the previous view in place. Cross-referencing can fail per
// branch: resolved branches are applied and exported, the rest is reported.
//
// The write lock is held across the whole build: expanding proof layers and
// cross-referencing intern new paths into the shared arena, which View
// readers walk concurrently.
func (s *Session) provePathQuery(ctx context.Context, store Store, query wire.PathQuery) error {
	p, err := store.ProvePathQuery(ctx, query)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	proofTree, err := proof.NewTree(ctx, s.pctx, store, p)
	if err != nil {
		return err
	}
	crossrefErr := proofTree.FetchAdditionalData(ctx, store)

	var updates []wire.NodeUpdate
	for _, byKey := range proofTree.ProofData() {
		for _, node := range byKey {
			if node.Update != nil {
				updates = append(updates, *node.Update)
			}
		}
	}
	if err := s.applyNodeUpdatesLocked(updates); err != nil {
		s.log.Infof("applying proof updates: %v", err)
	}
	s.proofData = proofTree.ProofData()

	return crossrefErr
}
