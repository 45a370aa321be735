// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package merkle implements the entity index and incremental Merkle
// tree: leaves are SHA-256(id || value) sorted by entity id, internal
// nodes are SHA-256(left || right), an odd leaf at any level is
// promoted unchanged rather than duplicated, and the root of an empty
// tree is the all-zero hash.
package merkle

import (
	"crypto/sha256"

	"github.com/luxfi/hybridsync/model"
)

// leafHash returns SHA-256(id || value), the Merkle leaf for an entity.
func leafHash(id model.EntityId, value []byte) model.Hash {
	h := sha256.New()
	h.Write(id.Bytes())
	h.Write(value)
	var out model.Hash
	copy(out[:], h.Sum(nil))
	return out
}

func internalHash(left, right model.Hash) model.Hash {
	h := sha256.New()
	h.Write(left.Bytes())
	h.Write(right.Bytes())
	var out model.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Tree is an incremental Merkle tree over a sequence of leaf hashes
// whose order is fixed by the caller (Index sorts leaves by entity id
// before handing them to Tree). It is not safe for concurrent use;
// Index provides the locking.
type Tree struct {
	// levels[0] is the leaf level; levels[len(levels)-1] is the single
	// root element. A tree with zero leaves has levels == nil and Root
	// reports model.ZeroHash.
	levels [][]model.Hash
}

// NewTree builds a tree from leaves, in the order given. Callers must
// pass leaves already sorted by entity id.
func NewTree(leaves []model.Hash) *Tree {
	t := &Tree{}
	t.rebuild(leaves)
	return t
}

// Root returns the current root hash, or model.ZeroHash if the tree has
// no leaves.
func (t *Tree) Root() model.Hash {
	if len(t.levels) == 0 {
		return model.ZeroHash
	}
	top := t.levels[len(t.levels)-1]
	if len(top) == 0 {
		return model.ZeroHash
	}
	return top[0]
}

// Leaves returns the current leaf hashes in their stored order. The
// returned slice is owned by the caller.
func (t *Tree) Leaves() []model.Hash {
	if len(t.levels) == 0 {
		return nil
	}
	out := make([]model.Hash, len(t.levels[0]))
	copy(out, t.levels[0])
	return out
}

// nextLevel pairs adjacent hashes in level, promoting an unpaired final
// element unchanged.
func nextLevel(level []model.Hash) []model.Hash {
	n := len(level)
	if n == 0 {
		return nil
	}
	next := make([]model.Hash, 0, (n+1)/2)
	i := 0
	for ; i+1 < n; i += 2 {
		next = append(next, internalHash(level[i], level[i+1]))
	}
	if i < n {
		next = append(next, level[i])
	}
	return next
}

// rebuild recomputes every level from scratch. O(n). Used whenever the
// leaf count or leaf order changes (insert/delete of an entity id),
// since the sorted-array layout gives no cheaper way to keep the
// pairing structure consistent when positions shift.
func (t *Tree) rebuild(leaves []model.Hash) {
	if len(leaves) == 0 {
		t.levels = nil
		return
	}

	level := make([]model.Hash, len(leaves))
	copy(level, leaves)

	levels := [][]model.Hash{level}
	for len(level) > 1 {
		level = nextLevel(level)
		levels = append(levels, level)
	}
	t.levels = levels
}

// Rebuild replaces the tree's contents with leaves, recomputing every
// level from scratch; also the bootstrap path for
// Index.RebuildFromScratch.
func (t *Tree) Rebuild(leaves []model.Hash) {
	t.rebuild(leaves)
}

// UpdateLeafAt replaces the leaf hash at index (an existing leaf whose
// position in sort order is unchanged — i.e. an entity value update,
// not an insert or delete) and recomputes only the O(log n) path from
// that leaf to the root.
func (t *Tree) UpdateLeafAt(index int, newHash model.Hash) {
	if len(t.levels) == 0 || index < 0 || index >= len(t.levels[0]) {
		return
	}

	t.levels[0][index] = newHash
	idx := index

	for l := 0; l+1 < len(t.levels); l++ {
		level := t.levels[l]
		n := len(level)

		if idx == n-1 && n%2 == 1 {
			// idx was promoted unchanged; propagate the same value up.
			nextIdx := idx / 2
			t.levels[l+1][nextIdx] = level[idx]
			idx = nextIdx
			continue
		}

		pairIdx := idx - (idx % 2)
		combined := internalHash(level[pairIdx], level[pairIdx+1])
		nextIdx := pairIdx / 2
		t.levels[l+1][nextIdx] = combined
		idx = nextIdx
	}
}

// children reports the child hashes of a node identified by its own
// hash: found=false if hash is not present anywhere in the tree,
// isLeaf=true with no children if hash names a leaf (or a node that
// was promoted unchanged from a leaf, which is hash-indistinguishable
// from that leaf). This is a linear scan over every level — cheap
// enough for the tree sizes this protocol targets, but a production
// node serving many concurrent HashComparison sessions would want a
// hash->node index instead of recomputing this per call.
func (t *Tree) children(hash model.Hash) (children []model.Hash, isLeaf, found bool) {
	if len(t.levels) == 0 {
		return nil, false, false
	}
	for _, h := range t.levels[0] {
		if h == hash {
			return nil, true, true
		}
	}
	for l := 0; l+1 < len(t.levels); l++ {
		level := t.levels[l]
		for i := 0; i+1 < len(level); i += 2 {
			if internalHash(level[i], level[i+1]) == hash {
				return []model.Hash{level[i], level[i+1]}, false, true
			}
		}
	}
	return nil, false, false
}

// LeafCount returns the number of leaves currently in the tree.
func (t *Tree) LeafCount() int {
	if len(t.levels) == 0 {
		return 0
	}
	return len(t.levels[0])
}

// Depth returns the number of levels between the leaves and the root,
// inclusive of the leaf level itself being depth 1 for a single-leaf
// tree. An empty tree has depth 0.
func (t *Tree) Depth() int {
	return len(t.levels)
}
