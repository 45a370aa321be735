// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"sort"
	"sync"

	"github.com/luxfi/hybridsync/model"
)

// Index is the entity store backing a node's Merkle-hashed state: it
// keeps every known entity keyed by id, a sorted-by-id leaf order, and
// the incremental Tree built over those leaves. It is safe for
// concurrent use.
type Index struct {
	mu sync.RWMutex

	entities map[model.EntityId]model.Entity
	// order holds entity ids sorted ascending; order[i] corresponds to
	// tree leaf index i.
	order []model.EntityId
	tree  *Tree
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		entities: make(map[model.EntityId]model.Entity),
		tree:     NewTree(nil),
	}
}

func (ix *Index) find(id model.EntityId) (pos int, present bool) {
	pos = sort.Search(len(ix.order), func(i int) bool { return !ix.order[i].Less(id) })
	present = pos < len(ix.order) && ix.order[pos] == id
	return pos, present
}

// Put inserts or updates an entity. Updating an entity already present
// at the same sorted position is an O(log n) leaf rehash; inserting a
// never-before-seen id is an O(n) rebuild of the tree (see Tree.rebuild).
func (ix *Index) Put(entity model.Entity) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pos, present := ix.find(entity.ID)
	ix.entities[entity.ID] = entity
	newLeaf := leafHash(entity.ID, entity.Value)

	if present {
		ix.tree.UpdateLeafAt(pos, newLeaf)
		return
	}

	ix.order = append(ix.order, model.EntityId{})
	copy(ix.order[pos+1:], ix.order[pos:])
	ix.order[pos] = entity.ID

	ix.tree.Rebuild(ix.leafHashesLocked())
}

// Delete removes an entity from the index. O(n) rebuild: removing a
// leaf shifts every sorted position after it.
func (ix *Index) Delete(id model.EntityId) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pos, present := ix.find(id)
	if !present {
		return
	}

	delete(ix.entities, id)
	ix.order = append(ix.order[:pos], ix.order[pos+1:]...)
	ix.tree.Rebuild(ix.leafHashesLocked())
}

// Get returns the entity stored under id.
func (ix *Index) Get(id model.EntityId) (model.Entity, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.entities[id]
	return e, ok
}

// RootHash returns the current Merkle root, model.ZeroHash when empty.
func (ix *Index) RootHash() model.Hash {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Root()
}

// Len returns the number of entities in the index.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.order)
}

// Depth returns the current Merkle tree's depth (see Tree.Depth).
func (ix *Index) Depth() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Depth()
}

// IsEmpty reports whether the index holds no entities — the condition
// protocol selection uses to decide whether the Snapshot strategy may
// run without risking silent data loss.
func (ix *Index) IsEmpty() bool {
	return ix.Len() == 0
}

// OrderedIDs returns every entity id in ascending sort order, the same
// order the Merkle leaves are computed over.
func (ix *Index) OrderedIDs() []model.EntityId {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]model.EntityId, len(ix.order))
	copy(out, ix.order)
	return out
}

// RebuildFromScratch discards the cached tree structure and
// recomputes every level from the current entity set. Used after bulk
// loads (e.g. the Snapshot strategy's page-at-a-time writes) where
// rebuilding once at the end is cheaper than incrementally updating
// per entity.
func (ix *Index) RebuildFromScratch() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree.Rebuild(ix.leafHashesLocked())
}

// Children reports the children of the tree node identified by hash,
// as seen in this node's own tree — the lookup HashComparison's
// recursive descent uses to decide whether a subtree the peer offered
// is already identical locally (found=true) and, if not, which of its
// children still need fetching.
func (ix *Index) Children(hash model.Hash) (children []model.Hash, isLeaf, found bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.children(hash)
}

// LeafEntity finds the entity whose leaf hash equals hash, if any.
func (ix *Index) LeafEntity(hash model.Hash) (model.Entity, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, id := range ix.order {
		e := ix.entities[id]
		if leafHash(e.ID, e.Value) == hash {
			return e, true
		}
	}
	return model.Entity{}, false
}

// leafHashesLocked computes the current leaf hash slice in sorted
// order. Callers must hold ix.mu.
func (ix *Index) leafHashesLocked() []model.Hash {
	leaves := make([]model.Hash, len(ix.order))
	for i, id := range ix.order {
		e := ix.entities[id]
		leaves[i] = leafHash(e.ID, e.Value)
	}
	return leaves
}
