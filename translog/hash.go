// Package translog implements C4 of TECP: an append-only RFC 6962-style
// Merkle transparency log backed by Postgres, with Ed25519-signed tree
// heads and the §6 read/write shapes exposed by logclient/logsrv.
package translog

import "crypto/sha256"

const (
	leafHashPrefix byte = 0x00
	nodeHashPrefix byte = 0x01
)

// LeafHash computes RFC 6962's leaf hash: SHA256(0x00 || data) (spec.md
// §4.4.1).
func LeafHash(data []byte) []byte {
	h := sha256.New()
	h.Write([]byte{leafHashPrefix})
	h.Write(data)
	return h.Sum(nil)
}

// NodeHash computes RFC 6962's interior node hash: SHA256(0x01 || left ||
// right) (spec.md §4.4.1).
func NodeHash(left, right []byte) []byte {
	h := sha256.New()
	h.Write([]byte{nodeHashPrefix})
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// EmptyRoot is the root hash of a zero-leaf tree: SHA256() of nothing,
// i.e. the hash of the empty string, per RFC 6962 §2.1.
func EmptyRoot() []byte {
	h := sha256.Sum256(nil)
	return h[:]
}

// splitPoint returns the largest power of two strictly less than n, the
// split point RFC 6962's MTH uses to recurse (spec.md §4.4.1: "split at
// the largest power of two less than n").
func splitPoint(n int) int {
	if n < 2 {
		return 0
	}
	k := 1
	for k*2 < n {
		k *= 2
	}
	return k
}

// MTH computes the RFC 6962 Merkle Tree Hash over leafHashes, which must
// already be individually leaf-hashed (not raw entry bytes).
func MTH(leafHashes [][]byte) []byte {
	n := len(leafHashes)
	if n == 0 {
		return EmptyRoot()
	}
	if n == 1 {
		return append([]byte(nil), leafHashes[0]...)
	}
	k := splitPoint(n)
	left := MTH(leafHashes[:k])
	right := MTH(leafHashes[k:])
	return NodeHash(left, right)
}
