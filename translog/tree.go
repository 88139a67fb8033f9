package translog

import "sync"

// treeCache is the in-memory mirror of the append-only leaf-hash sequence,
// adapted from the teacher's internal/service/agent.go: there, a
// sync.Mutex-guarded aggregate accumulated per-path rolling hashes and
// periodically flushed; here the same shape accumulates leaf hashes and
// memoizes the last computed root so repeated root() calls between
// appends don't re-walk the whole tree; proof() recomputes its audit path
// and root from all leaves on every call. It never talks to Postgres
// directly — Log owns durability and calls treeCache.append only after a
// row is committed, keeping the cache a pure read accelerator.
type treeCache struct {
	mu     sync.RWMutex
	leaves [][]byte

	rootValid bool
	rootSize  int
	rootHash  []byte
}

func newTreeCache() *treeCache {
	return &treeCache{}
}

// loadAll replaces the cache's contents, used when a Log starts up and
// needs to hydrate from Postgres.
func (c *treeCache) loadAll(leafHashes [][]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaves = append([][]byte(nil), leafHashes...)
	c.rootValid = false
}

// append adds a single already-committed leaf hash to the cache.
func (c *treeCache) append(leafHash []byte) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaves = append(c.leaves, leafHash)
	c.rootValid = false
	return int64(len(c.leaves))
}

// size returns the current number of leaves.
func (c *treeCache) size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.leaves))
}

// root returns MTH over all currently cached leaves, recomputing only if
// the cache has grown since the last call.
func (c *treeCache) root() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rootValid && c.rootSize == len(c.leaves) {
		return append([]byte(nil), c.rootHash...)
	}
	root := MTH(c.leaves)
	c.rootHash = root
	c.rootSize = len(c.leaves)
	c.rootValid = true
	return append([]byte(nil), root...)
}

// proof returns the audit path for the leaf at the 0-based tree position
// pos against the tree at its current size, plus that size and root for
// convenience. The returned Proof.LeafIndex is the public, 1-based leaf
// index (spec.md: "leaf indices are assigned strictly monotonically
// starting at 1"). The exported AuditPath/RootFromAuditPath/VerifyInclusion
// helpers still take a 0-based position, so callers using them convert
// (leafIndex - 1) themselves.
func (c *treeCache) proof(pos int64) (*Proof, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	path, err := AuditPath(int(pos), c.leaves)
	if err != nil {
		return nil, err
	}
	return &Proof{
		LeafIndex: pos + 1,
		TreeSize:  int64(len(c.leaves)),
		AuditPath: path,
		RootHash:  MTH(c.leaves),
	}, nil
}

// leafHashAt returns the cached leaf hash at index, or nil if out of range.
func (c *treeCache) leafHashAt(index int64) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= int64(len(c.leaves)) {
		return nil
	}
	return append([]byte(nil), c.leaves[index]...)
}
