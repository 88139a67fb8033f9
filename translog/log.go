package translog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tecp-protocol/tecp-go/internal/metrics"
)

// AppendResult is returned by Log.Append (spec.md §6 "append" response:
// "{leaf_index, root, proof}"; LeafHash and SignedTreeHead are carried
// alongside since callers need the leaf hash for their own bookkeeping and
// the signed root, not just its bare bytes).
type AppendResult struct {
	LeafIndex      int64
	LeafHash       []byte
	TreeSize       int64
	SignedTreeHead *SignedTreeHead
	Proof          *Proof
}

// Log ties together durable storage, the in-memory tree cache, and key
// rotation into the single linearizable append-only log of spec.md §4.4.
// Append takes an internal sync.Mutex around the three-step transaction
// (insert entry, compute new root, insert signed root) described in §4.4.3
// and §5 — a single Log process is the only writer; concurrent writers
// would need external coordination this package doesn't attempt.
type Log struct {
	store *Store
	cache *treeCache
	keys  *KeyRing
	log   zerolog.Logger

	mu sync.Mutex
}

// OpenLog hydrates a Log from store's persisted entries and wires it to
// keys for signing.
func OpenLog(ctx context.Context, store *Store, keys *KeyRing, logger zerolog.Logger) (*Log, error) {
	leafHashes, err := store.LoadAllLeafHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("translog: hydrate log: %w", err)
	}
	cache := newTreeCache()
	cache.loadAll(leafHashes)
	return &Log{store: store, cache: cache, keys: keys, log: logger.With().Str("module", "translog").Logger()}, nil
}

// Append adds a new leaf for codeRef/receiptHash, persists it plus the
// resulting signed root inside one transaction, returns the leaf's
// inclusion proof against the new root (not persisted), and
// updates the in-memory cache only after the transaction commits (spec.md
// §4.4.3's ordering: never let the cache get ahead of durable storage).
// leaf_hash is LeafHash(receiptHash), the same value a LogVerifier
// recomputes when checking a receipt's log_inclusion field.
func (l *Log) Append(ctx context.Context, codeRef string, receiptHash []byte) (*AppendResult, error) {
	start := time.Now()
	defer metrics.ObserveAppend(start)

	l.mu.Lock()
	defer l.mu.Unlock()

	leafHash := LeafHash(receiptHash)
	expectedPosition := l.cache.size()

	tx, err := l.store.BeginAppend(ctx)
	if err != nil {
		return nil, fmt.Errorf("translog: begin append: %w", err)
	}
	defer tx.Rollback()

	leafIndex, err := l.store.AppendEntry(ctx, tx, codeRef, receiptHash, leafHash, time.Now())
	if err != nil {
		return nil, err
	}
	position := leafIndex - 1
	if position != expectedPosition {
		return nil, fmt.Errorf("%w: assigned leaf_index %d does not match expected tree position %d", ErrConcurrentAppend, leafIndex, expectedPosition+1)
	}

	newLeaves := append(append([][]byte(nil), l.leavesSnapshot()...), leafHash)
	newRoot := MTH(newLeaves)
	newSize := int64(len(newLeaves))

	auditPath, err := AuditPath(int(position), newLeaves)
	if err != nil {
		return nil, fmt.Errorf("translog: compute inclusion proof: %w", err)
	}

	active := l.keys.Active()
	if active == nil {
		return nil, fmt.Errorf("translog: no active signing key")
	}
	sth, err := IssueSTH(active, newRoot, newSize)
	if err != nil {
		return nil, fmt.Errorf("translog: issue sth: %w", err)
	}
	if err := l.store.InsertRoot(ctx, tx, sth); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("translog: commit append: %w", err)
	}

	l.cache.append(leafHash)
	metrics.LogTreeSize.Set(float64(newSize))

	l.log.Debug().Int64("leaf_index", leafIndex).Int64("tree_size", newSize).Msg("append committed")
	proof := &Proof{LeafIndex: leafIndex, TreeSize: newSize, AuditPath: auditPath, RootHash: newRoot}
	return &AppendResult{LeafIndex: leafIndex, LeafHash: leafHash, TreeSize: newSize, SignedTreeHead: sth, Proof: proof}, nil
}

// leavesSnapshot returns a defensive copy of every currently cached leaf
// hash, used to compute the post-append root before the cache itself is
// updated (which only happens after a successful commit).
func (l *Log) leavesSnapshot() [][]byte {
	n := l.cache.size()
	out := make([][]byte, 0, n)
	for i := int64(0); i < n; i++ {
		out = append(out, l.cache.leafHashAt(i))
	}
	return out
}

// Proof returns an inclusion proof for leafIndex (1-based, per spec.md §3
// "leaf indices are assigned strictly monotonically starting at 1")
// against the tree's current size (spec.md §6 "proof").
func (l *Log) Proof(ctx context.Context, leafIndex int64) (*Proof, error) {
	if leafIndex < 1 {
		return nil, fmt.Errorf("translog: leaf_index must be >= 1, got %d", leafIndex)
	}
	return l.cache.proof(leafIndex - 1)
}

// Root returns a freshly signed tree head over the log's current state
// (spec.md §6 "root"), signing even if no entries have arrived since the
// last call. Nothing caches the result; every call signs a new STH.
func (l *Log) Root(ctx context.Context) (*SignedTreeHead, error) {
	root := l.cache.root()
	size := l.cache.size()
	active := l.keys.Active()
	if active == nil {
		return nil, fmt.Errorf("translog: no active signing key")
	}
	return IssueSTH(active, root, size)
}

// Entries returns the persisted entries for the 1-based leaf index range
// [start, end) (spec.md §6 "entries").
func (l *Log) Entries(ctx context.Context, start, end int64) ([]Entry, error) {
	size := l.cache.size()
	if start < 1 || end < start || end > size+1 {
		return nil, fmt.Errorf("translog: entries range [%d,%d) out of bounds for tree size %d", start, end, size)
	}
	out := make([]Entry, 0, end-start)
	for i := start; i < end; i++ {
		e, err := l.store.Entry(ctx, i)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

// Keys returns every key record the log has ever held (spec.md §6 "keys").
func (l *Log) Keys(ctx context.Context) ([]KeyRecord, error) {
	return l.keys.Records(), nil
}

// SignedTime issues a signed-time attestation over the log's current root
// (spec.md §6 "signed_time").
func (l *Log) SignedTime(ctx context.Context) (*SignedTime, error) {
	root := l.cache.root()
	active := l.keys.Active()
	if active == nil {
		return nil, fmt.Errorf("translog: no active signing key")
	}
	return IssueSignedTime(active, root)
}

// Rotate performs key rotation and persists the resulting states.
func (l *Log) Rotate(ctx context.Context) error {
	if _, err := l.keys.PrepareNext(); err != nil {
		return err
	}
	if err := l.keys.Rotate(); err != nil {
		return err
	}
	for _, rec := range l.keys.Records() {
		if err := l.store.UpsertKey(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
